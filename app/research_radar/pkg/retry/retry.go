package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// 默认重试参数
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 5 * time.Second
)

// Classifier 判断错误是否值得重试
type Classifier func(error) bool

// Policy 固定间隔、有限次数的重试策略
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Classify    Classifier
	Log         logrus.FieldLogger
}

// NewPolicy 创建重试策略，非法参数回退到默认值
func NewPolicy(maxAttempts int, delay time.Duration, log logrus.FieldLogger) *Policy {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Classify:    IsRetryable,
		Log:         log,
	}
}

// Do 执行 fn，失败时按策略重试。
// 不可重试的错误立即返回；可重试错误在最后一次尝试后包装为 ExhaustedError
func (p *Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	classify := p.Classify
	if classify == nil {
		classify = IsRetryable
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				p.logger().Infof("%s: 第 %d 次尝试成功", op, attempt)
			}
			return nil
		}

		if !classify(err) {
			p.logger().Errorf("%s: 不可重试的错误: %v", op, err)
			return err
		}

		p.logger().Warnf("Attempt %d/%d failed: %v", attempt, attempts, err)
		if attempt == attempts {
			return &ExhaustedError{Op: op, Attempts: attempts, Err: err}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: retry cancelled: %w", op, ctx.Err())
		case <-time.After(p.Delay):
		}
	}
	return nil
}

func (p *Policy) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}
