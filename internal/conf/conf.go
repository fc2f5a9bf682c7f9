package conf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Bootstrap 服务启动配置（configs/config.yaml）
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Sim    *Sim    `json:"sim"`
	Log    *Log    `json:"log"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
	Grpc *Server_GRPC `json:"grpc"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Server_GRPC struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	S3       *Data_S3       `json:"s3"`
}

type Data_Database struct {
	Driver       string `json:"driver"`
	Source       string `json:"source"`
	MaxIdleConns int32  `json:"max_idle_conns"`
	MaxOpenConns int32  `json:"max_open_conns"`
	ShowSQL      bool   `json:"show_sql"`
}

type Data_Redis struct {
	Addr         []string  `json:"addr"`
	Password     string    `json:"password"`
	Db           int32     `json:"db"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
}

type Data_S3 struct {
	Enabled         bool   `json:"enabled"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	Endpoint        string `json:"endpoint"`
	AccessKeyId     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// Sim 模拟任务相关配置
type Sim struct {
	GamesDir        string    `json:"games_dir"`
	MaxWorkers      int32     `json:"max_workers"`
	MaxRunning      int32     `json:"max_running"`
	ShardSize       int32     `json:"shard_size"`
	MaxCount        int64     `json:"max_count"`
	ResultBatch     int32     `json:"result_batch"`
	PointEvery      int64     `json:"point_every"`
	BookDir         string    `json:"book_dir"`
	Retention       *Duration `json:"retention"`
	CleanupInterval *Duration `json:"cleanup_interval"`
	Chart           *Chart    `json:"chart"`
	Notify          *Notify   `json:"notify"`
}

type Chart struct {
	GenerateLocal bool   `json:"generate_local"`
	UploadToS3    bool   `json:"upload_to_s3"`
	OutputDir     string `json:"output_dir"`
}

type Notify struct {
	Enabled       bool   `json:"enabled"`
	WebhookUrl    string `json:"webhook_url"`
	SigningSecret string `json:"signing_secret"`
	Prefix        string `json:"prefix"`
}

func (x *Notify) GetWebhookUrl() string {
	if x == nil {
		return ""
	}
	return x.WebhookUrl
}

func (x *Notify) GetSigningSecret() string {
	if x == nil {
		return ""
	}
	return x.SigningSecret
}

func (x *Notify) GetPrefix() string {
	if x == nil {
		return ""
	}
	return x.Prefix
}

type Log struct {
	Mode  string `json:"mode"`
	Level string `json:"level"`
	App   string `json:"app"`
	Dir   string `json:"dir"`
	File  bool   `json:"file"`
}

// Duration 配置中的时长，支持 "5s" 字符串或秒数
type Duration struct {
	time.Duration
}

func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

// AsDuration nil 安全
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		d.Duration = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := jsoniter.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", str, err)
		}
		d.Duration = v
		return nil
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", s, err)
	}
	d.Duration = time.Duration(sec * float64(time.Second))
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// Defaults 补齐缺省值
func (c *Sim) Defaults() *Sim {
	if c == nil {
		c = &Sim{}
	}
	if c.GamesDir == "" {
		c.GamesDir = "../../configs/games"
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 64
	}
	if c.MaxRunning <= 0 {
		c.MaxRunning = 1
	}
	if c.ShardSize <= 0 {
		c.ShardSize = 1000
	}
	if c.MaxCount <= 0 {
		c.MaxCount = 100_000_000
	}
	if c.ResultBatch <= 0 {
		c.ResultBatch = 2000
	}
	if c.PointEvery <= 0 {
		c.PointEvery = 10000
	}
	if c.Retention == nil {
		c.Retention = NewDuration(24 * time.Hour)
	}
	if c.CleanupInterval == nil {
		c.CleanupInterval = NewDuration(time.Hour)
	}
	if c.Chart == nil {
		c.Chart = &Chart{}
	}
	if c.Chart.OutputDir == "" {
		c.Chart.OutputDir = "./rtp_charts"
	}
	if c.Notify == nil {
		c.Notify = &Notify{}
	}
	return c
}
