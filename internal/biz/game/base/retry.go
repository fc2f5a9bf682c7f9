package base

// Retry 有界重试。fn 返回 done=true 结束；返回 err 立即透传（致命）；
// 预算耗尽返回 RETRY_EXHAUSTED。attempt 从 1 开始。
func Retry(attempts int, what string, fn func(attempt int) (done bool, err error)) error {
	if attempts <= 0 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		done, err := fn(i)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return Exhaustedf("%s: no success within %d attempts", what, attempts)
}
