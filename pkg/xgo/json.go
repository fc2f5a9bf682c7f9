package xgo

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ToJSON 用于日志输出，编码失败时返回错误文本
func ToJSON(v any) string {
	s, err := json.MarshalToString(v)
	if err != nil {
		return err.Error()
	}
	return s
}

// MarshalPretty 两空格缩进并以换行结尾，用于落盘的汇总与索引文件
func MarshalPretty(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// WriteJSONFile 先写同目录临时文件再 rename，读者不会看到写了一半的文件
func WriteJSONFile(path string, v any) error {
	b, err := MarshalPretty(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
