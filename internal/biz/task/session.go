package task

import (
	"bytes"
	"context"
	"sync/atomic"

	"mather/internal/biz/game/engine"
	"mather/internal/biz/stats"

	"github.com/go-kratos/kratos/v2/errors"
	jsoniter "github.com/json-iterator/go"
)

const defaultResultBatch = 2000

type SessionState int32

const (
	SessionStateIdle      SessionState = 1
	SessionStateRunning   SessionState = 2
	SessionStateCompleted SessionState = 3
	SessionStateCancelled SessionState = 4
	SessionStateFailed    SessionState = 5
)

// Session 一个分片 [From, To) 的模拟，局序号全局唯一
type Session struct {
	Shard int
	From  int64
	To    int64

	state     atomic.Int32
	done      atomic.Int64
	LastError string
}

func NewSession(shard int, from, to int64) *Session {
	s := &Session{Shard: shard, From: from, To: to}
	s.state.Store(int32(SessionStateIdle))
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) {
	s.state.Store(int32(st))
}

func (s *Session) IsFailed() bool {
	return s.State() == SessionStateFailed
}

// Done 已完成局数
func (s *Session) Done() int64 {
	return s.done.Load()
}

// buildSessions 按分片大小切分 [0, count)
func buildSessions(count, shardSize int64) []*Session {
	if shardSize <= 0 {
		shardSize = count
	}
	out := make([]*Session, 0, (count+shardSize-1)/max(shardSize, 1))
	for from, i := int64(0), 0; from < count; from, i = from+shardSize, i+1 {
		out = append(out, NewSession(i, from, min(from+shardSize, count)))
	}
	return out
}

// reasonOf 错误原因码，非 kratos 错误归为 UNKNOWN
func reasonOf(err error) string {
	if r := errors.Reason(err); r != "" {
		return r
	}
	return "UNKNOWN"
}

// Execute 依次运行分片内各局，结果按批写出。单局错误计入统计后跳过；
// 仅在模式无效或 ctx 取消时返回错误
func (s *Session) Execute(ctx context.Context, t *Task, deps *ExecDeps) error {
	s.setState(SessionStateRunning)
	g := t.Game()
	cfg := t.GetConfig()
	mode, err := g.Config().Mode(cfg.Mode)
	if err != nil {
		s.setState(SessionStateFailed)
		return err
	}

	n := int(s.To - s.From)
	criteria := engine.AssignCriteria(mode, n, engine.ShardSeed(cfg.Seed, s.Shard))
	batch := defaultResultBatch
	if deps != nil && deps.Conf != nil && deps.Conf.ResultBatch > 0 {
		batch = int(deps.Conf.ResultBatch)
	}

	var books *bytes.Buffer
	var enc *jsoniter.Encoder
	if cfg.SaveBooks {
		books = &bytes.Buffer{}
		enc = jsoniter.ConfigFastest.NewEncoder(books)
	}

	rows := make([]stats.Row, 0, min(n, batch))
	flush := func() {
		if len(rows) > 0 {
			t.saveResults(ctx, deps, rows)
			rows = make([]stats.Row, 0, min(n, batch))
		}
	}
	defer func() {
		flush()
		if books != nil && books.Len() > 0 {
			t.saveBooks(ctx, deps, s.Shard, books.Bytes())
		}
	}()

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			s.setState(SessionStateCancelled)
			return ctx.Err()
		}
		sim := s.From + int64(i)
		out, err := g.Engine().Spin(engine.SpinRequest{
			Mode:     cfg.Mode,
			Criteria: criteria[i],
			Sim:      int(sim),
			Seed:     cfg.Seed,
		})
		if err != nil {
			// 单局失败只丢弃该局，不写结果也不写 book
			t.stats.AddError(reasonOf(err))
			s.LastError = err.Error()
			t.log.Errorf("shard %d sim %d: %v", s.Shard, sim, err)
			continue
		}
		row := stats.Row{
			Sim:       sim,
			Criteria:  out.Criteria,
			Feature:   out.Feature,
			Win:       out.Book.PayoutMultiplier,
			BaseWin:   out.Book.BaseGameWins,
			FreeWin:   out.Book.FreeGameWins,
			Capped:    out.Capped,
			Repeats:   out.Repeats,
			FreeSpins: out.FreeSpins,
			WinLevel:  g.Config().WinLevel(out.Win.InexactFloat64()),
		}
		t.stats.Record(row)
		s.done.Add(1)
		rows = append(rows, row)
		if enc != nil {
			if err := enc.Encode(out.Book); err != nil {
				t.log.Warnf("shard %d: encode book %d: %v", s.Shard, sim, err)
			}
		}
		if len(rows) >= batch {
			flush()
		}
	}
	s.setState(SessionStateCompleted)
	return nil
}
