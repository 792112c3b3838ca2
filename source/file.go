package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// 支持的扩展名，按顺序查找；JSON 是 YAML 的子集，用同一个解码器
var fileExtensions = []string{".yaml", ".yml", ".json"}

// FileSource 从目录读取 products / users / interactions 三个文件（YAML 或 JSON 数组）。
//
//	data/
//	  products.yaml
//	  users.yaml
//	  interactions.json
type FileSource struct {
	Dir string
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) (*Records, error) {
	recs := &Records{}
	if err := s.decode("products", &recs.Products); err != nil {
		return nil, err
	}
	if err := s.decode("users", &recs.Users); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.decode("interactions", &recs.Interactions); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *FileSource) decode(name string, out any) error {
	path, err := s.find(name)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(out); err != nil {
		// 空文件按空集合处理，由 Build 判定为数据不可用
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *FileSource) find(name string) (string, error) {
	for _, ext := range fileExtensions {
		path := filepath.Join(s.Dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%s: no %s file (%v)", s.Dir, name, fileExtensions)
}
