package v1

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// TaskStatus 任务状态
type TaskStatus int32

const (
	TaskStatus_TASK_UNSPECIFIED TaskStatus = 0
	TaskStatus_TASK_PENDING     TaskStatus = 1
	TaskStatus_TASK_RUNNING     TaskStatus = 2
	TaskStatus_TASK_PROCESSING  TaskStatus = 3
	TaskStatus_TASK_COMPLETED   TaskStatus = 4
	TaskStatus_TASK_FAILED      TaskStatus = 5
	TaskStatus_TASK_CANCELLED   TaskStatus = 6
)

var TaskStatus_name = map[TaskStatus]string{
	0: "TASK_UNSPECIFIED",
	1: "TASK_PENDING",
	2: "TASK_RUNNING",
	3: "TASK_PROCESSING",
	4: "TASK_COMPLETED",
	5: "TASK_FAILED",
	6: "TASK_CANCELLED",
}

var TaskStatus_value = map[string]TaskStatus{
	"TASK_UNSPECIFIED": 0,
	"TASK_PENDING":     1,
	"TASK_RUNNING":     2,
	"TASK_PROCESSING":  3,
	"TASK_COMPLETED":   4,
	"TASK_FAILED":      5,
	"TASK_CANCELLED":   6,
}

func (x TaskStatus) String() string {
	if s, ok := TaskStatus_name[x]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

func (x TaskStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(x.String())), nil
}

// UnmarshalJSON 接受名称或数字
func (x *TaskStatus) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var name string
		if err := jsoniter.Unmarshal(b, &name); err != nil {
			return err
		}
		v, ok := TaskStatus_value[strings.ToUpper(name)]
		if !ok {
			return fmt.Errorf("unknown task status %q", name)
		}
		*x = v
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid task status %s", s)
	}
	*x = TaskStatus(n)
	return nil
}

// TaskConfig 模拟任务参数
type TaskConfig struct {
	GameId    string `json:"game_id"`
	Mode      string `json:"mode"`
	Count     int64  `json:"count"`
	Seed      uint64 `json:"seed"`
	Workers   int32  `json:"workers"`
	SaveBooks bool   `json:"save_books"`
}

func (x *TaskConfig) GetGameId() string {
	if x == nil {
		return ""
	}
	return x.GameId
}

func (x *TaskConfig) GetMode() string {
	if x == nil {
		return ""
	}
	return x.Mode
}

func (x *TaskConfig) GetCount() int64 {
	if x == nil {
		return 0
	}
	return x.Count
}

func (x *TaskConfig) Validate() error {
	if x == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(x.GameId) == "" {
		return fmt.Errorf("config.game_id is required")
	}
	if strings.TrimSpace(x.Mode) == "" {
		return fmt.Errorf("config.mode is required")
	}
	if x.Count <= 0 {
		return fmt.Errorf("config.count must be > 0")
	}
	if x.Workers < 0 {
		return fmt.Errorf("config.workers must be >= 0")
	}
	return nil
}

// CriteriaCount 单个 criteria 的统计
type CriteriaCount struct {
	Criteria string `json:"criteria"`
	Count    int64  `json:"count"`
	WinCents int64  `json:"win_cents"`
}

// TaskCompletionReport 任务报告，金额单位为分（下注额 = 局数 * 模式成本 * 100）
type TaskCompletionReport struct {
	TaskId       string           `json:"task_id"`
	GameId       string           `json:"game_id"`
	GameName     string           `json:"game_name"`
	Mode         string           `json:"mode"`
	Status       TaskStatus       `json:"status"`
	Seed         uint64           `json:"seed"`
	Target       int64            `json:"target"`
	Processed    int64            `json:"processed"`
	Failed       int64            `json:"failed"`
	Progress     float64          `json:"progress"`
	ElapsedMs    int64            `json:"elapsed_ms"`
	SpinsPerSec  float64          `json:"spins_per_sec"`
	TotalBet     int64            `json:"total_bet"`
	TotalWin     int64            `json:"total_win"`
	BaseWin      int64            `json:"base_win"`
	FreeWin      int64            `json:"free_win"`
	RtpPct       float64          `json:"rtp_pct"`
	BaseRtpPct   float64          `json:"base_rtp_pct"`
	FreeRtpPct   float64          `json:"free_rtp_pct"`
	HitRatePct   float64          `json:"hit_rate_pct"`
	FeatureCount int64            `json:"feature_count"`
	SuperCount   int64            `json:"super_count"`
	CappedCount  int64            `json:"capped_count"`
	Repeats      int64            `json:"repeats"`
	MaxWin       int64            `json:"max_win"`
	Criteria     []*CriteriaCount `json:"criteria,omitempty"`
	WinLevels    []int64          `json:"win_levels,omitempty"`
	Errors       map[string]int64 `json:"errors,omitempty"`
	Url          string           `json:"url,omitempty"`
	BooksUrl     string           `json:"books_url,omitempty"`
}

// Task 任务视图
type Task struct {
	TaskId     string                `json:"task_id"`
	Status     TaskStatus            `json:"status"`
	Config     *TaskConfig           `json:"config"`
	Report     *TaskCompletionReport `json:"report,omitempty"`
	RecordUrl  string                `json:"record_url,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
}

type CreateTaskRequest struct {
	Config      *TaskConfig `json:"config"`
	Description string      `json:"description"`
}

func (x *CreateTaskRequest) Validate() error {
	if x == nil {
		return fmt.Errorf("request is required")
	}
	return x.Config.Validate()
}

type CreateTaskResponse struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
	Task    *Task  `json:"task,omitempty"`
}

type ListTasksRequest struct {
	Status TaskStatus `json:"status"`
}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
	Total int32   `json:"total"`
}

type TaskInfoRequest struct {
	TaskId string `json:"task_id"`
}

func (x *TaskInfoRequest) Validate() error {
	return validateTaskID(x.TaskId)
}

type TaskInfoResponse struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
	Task    *Task  `json:"task,omitempty"`
}

type CancelTaskRequest struct {
	TaskId string `json:"task_id"`
}

func (x *CancelTaskRequest) Validate() error {
	return validateTaskID(x.TaskId)
}

type CancelTaskResponse struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

type DeleteTaskRequest struct {
	TaskId string `json:"task_id"`
}

func (x *DeleteTaskRequest) Validate() error {
	return validateTaskID(x.TaskId)
}

func validateTaskID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("task_id is required")
	}
	return nil
}

// ModeInfo 下注模式
type ModeInfo struct {
	Name     string   `json:"name"`
	Cost     string   `json:"cost"`
	Buy      bool     `json:"buy"`
	Criteria []string `json:"criteria"`
}

// GameInfo 游戏信息
type GameInfo struct {
	GameId  string      `json:"game_id"`
	Name    string      `json:"name"`
	WinCap  string      `json:"wincap"`
	Rtp     string      `json:"rtp"`
	Reels   int32       `json:"reels"`
	Rows    []int32     `json:"rows"`
	Modes   []*ModeInfo `json:"modes"`
	Version string      `json:"version,omitempty"`
}

type ListGamesRequest struct{}

type ListGamesResponse struct {
	Games []*GameInfo `json:"games"`
	Total int32       `json:"total"`
}

type VerifyGameRequest struct {
	GameId string `json:"game_id"`
}

func (x *VerifyGameRequest) Validate() error {
	if strings.TrimSpace(x.GameId) == "" {
		return fmt.Errorf("game_id is required")
	}
	return nil
}

// FenceLine 档位
type FenceLine struct {
	Name     string `json:"name"`
	Rtp      string `json:"rtp"`
	Excluded bool   `json:"excluded"`
}

// FenceReport 单个模式的档位核对
type FenceReport struct {
	Mode   string       `json:"mode"`
	Target string       `json:"target"`
	Sum    string       `json:"sum"`
	Diff   string       `json:"diff"`
	Ok     bool         `json:"ok"`
	Lines  []*FenceLine `json:"lines"`
}

type VerifyGameResponse struct {
	GameId string         `json:"game_id"`
	Ok     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Modes  []*FenceReport `json:"modes"`
}

// SpinRequest 单局调试请求，criteria 为空时按配额随机
type SpinRequest struct {
	GameId   string `json:"game_id"`
	Mode     string `json:"mode"`
	Criteria string `json:"criteria"`
	Sim      int32  `json:"sim"`
	Seed     uint64 `json:"seed"`
}

func (x *SpinRequest) Validate() error {
	if strings.TrimSpace(x.GameId) == "" {
		return fmt.Errorf("game_id is required")
	}
	if strings.TrimSpace(x.Mode) == "" {
		return fmt.Errorf("mode is required")
	}
	if x.Sim < 0 {
		return fmt.Errorf("sim must be >= 0")
	}
	return nil
}

// SpinReply 单局结果，Book 为完整事件记录
type SpinReply struct {
	GameId    string          `json:"game_id"`
	Mode      string          `json:"mode"`
	Criteria  string          `json:"criteria"`
	Feature   string          `json:"feature,omitempty"`
	Win       string          `json:"win"`
	BaseWin   string          `json:"base_win"`
	FreeWin   string          `json:"free_win"`
	Capped    bool            `json:"capped"`
	Repeats   int32           `json:"repeats"`
	FreeSpins int32           `json:"free_spins"`
	Book      json.RawMessage `json:"book"`
}
