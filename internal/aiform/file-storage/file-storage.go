// Пакет предоставляет интерфейс и реализации для работы с файловым хранилищем, включая локальное хранилище и Minio. Обеспечивает операции сохранения, загрузки, удаления и обхода объектов, а также поддержку метаданных.
package filestorage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	UploadTries = 20
)

type Metadata struct {
	FormId string
	UserId string
}

type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}

func (m Metadata) GetMap() map[string]string {
	meta := make(map[string]string)
	if m.FormId != "" {
		meta["formId"] = m.FormId
	}
	if m.UserId != "" {
		meta["userId"] = m.UserId
	}
	return meta
}

// FileStorage абстракция над хранилищем объектов. Ключи объектов — строки вида
// "uploads/<ts>_<имя>" или "signatures/<ts>_signature.png".
type FileStorage interface {
	Save(data []byte, key string, contentType string, metadata *Metadata) error
	SaveReader(reader io.Reader, fileSize int64, key string, contentType string, metadata *Metadata) error
	Load(key string) ([]byte, error)
	LoadReader(key string) (io.ReadCloser, error)
	Delete(key string) error
	Exist(key string) (bool, error)
	ListRoot(fn func(FileInfo) error) error
	GetFileInfo(key string) (*FileInfo, error)
}

type LocalStorage struct {
	rootDir string
}

func NewLocalStorage(rootPath string) (FileStorage, error) {
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, err
	}
	return &LocalStorage{rootPath}, nil
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.rootDir, filepath.FromSlash(key))
}

func (s *LocalStorage) Save(data []byte, key string, contentType string, metadata *Metadata) error {
	if err := os.MkdirAll(filepath.Dir(s.path(key)), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path(key), data, 0644)
}

func (s *LocalStorage) SaveReader(reader io.Reader, fileSize int64, key string, contentType string, metadata *Metadata) error {
	if err := os.MkdirAll(filepath.Dir(s.path(key)), 0755); err != nil {
		return err
	}
	f, err := os.Create(s.path(key))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, reader)
	return err
}

func (s *LocalStorage) Load(key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

func (s *LocalStorage) LoadReader(key string) (io.ReadCloser, error) {
	return os.Open(s.path(key))
}

func (s *LocalStorage) Delete(key string) error {
	return os.Remove(s.path(key))
}

func (s *LocalStorage) Exist(key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalStorage) ListRoot(fn func(FileInfo) error) error {
	return filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.rootDir, path)
		if err != nil {
			return err
		}
		return fn(FileInfo{
			Key:       filepath.ToSlash(rel),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	})
}

func (s *LocalStorage) GetFileInfo(key string) (*FileInfo, error) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		return nil, err
	}
	return &FileInfo{
		Key:       key,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

func NewMinioStorage(endpoint string, accessKeyID string, secretAccessKey string, useSSL bool, bucketName string) (FileStorage, error) {
	client, err := minio.New(strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return nil, err
	}

	if !exists {
		// Create bucket if not exist
		if err := client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioStorage{client, bucketName}, nil
}

func (s *MinioStorage) Save(data []byte, key string, contentType string, metadata *Metadata) error {
	return s.SaveReader(bytes.NewReader(data), int64(len(data)), key, contentType, metadata)
}

func (s *MinioStorage) SaveReader(reader io.Reader, fileSize int64, key string, contentType string, metadata *Metadata) error {
	putOptions := minio.PutObjectOptions{ContentType: contentType}
	if metadata != nil {
		putOptions.UserTags = metadata.GetMap()
	}

	var err error
	for i := range UploadTries {
		_, err = s.client.PutObject(context.Background(),
			s.bucketName,
			key,
			reader,
			fileSize,
			putOptions,
		)
		if err != nil {
			resp := minio.ToErrorResponse(err)
			slog.Error("Upload file to minio", "key", key, "try", i+1, "code", resp.StatusCode, "msg", resp.Message)
			time.Sleep(time.Second * 20)
			continue
		}
		break
	}
	return err
}

func (s *MinioStorage) Load(key string) ([]byte, error) {
	obj, err := s.LoadReader(key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	return io.ReadAll(obj)
}

func (s *MinioStorage) LoadReader(key string) (io.ReadCloser, error) {
	return s.client.GetObject(context.Background(),
		s.bucketName,
		key,
		minio.GetObjectOptions{},
	)
}

func (s *MinioStorage) Delete(key string) error {
	return s.client.RemoveObject(
		context.Background(),
		s.bucketName,
		key,
		minio.RemoveObjectOptions{},
	)
}

func (s *MinioStorage) Exist(key string) (bool, error) {
	_, err := s.client.StatObject(
		context.Background(),
		s.bucketName,
		key,
		minio.StatObjectOptions{},
	)
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MinioStorage) ListRoot(fn func(info FileInfo) error) error {
	for obj := range s.client.ListObjects(context.Background(), s.bucketName, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := fn(FileInfo{
			Key:         obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			CreatedAt:   obj.LastModified,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *MinioStorage) GetFileInfo(key string) (*FileInfo, error) {
	stat, err := s.client.StatObject(context.Background(), s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Key:         key,
		Size:        stat.Size,
		ContentType: stat.ContentType,
		CreatedAt:   stat.LastModified,
	}, nil
}
