package xgo

import (
	"fmt"
	"runtime/debug"

	"github.com/go-kratos/kratos/v2/log"
)

// Recover 须直接 defer 调用。捕获 panic 并连同堆栈记录到 h（nil 时用全局 logger），
// 再把 panic 转成 error 交给 onPanic，如标记任务失败
func Recover(h *log.Helper, onPanic func(err error)) {
	e := recover()
	if e == nil {
		return
	}
	err, ok := e.(error)
	if !ok {
		err = fmt.Errorf("%v", e)
	}
	err = fmt.Errorf("panic: %w", err)
	if h != nil {
		h.Errorf("%v\n%s", err, debug.Stack())
	} else {
		log.Errorf("%v\n%s", err, debug.Stack())
	}
	if onPanic != nil {
		onPanic(err)
	}
}
