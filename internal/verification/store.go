// Package verification 短信验证码存储：生成、过期与尝试次数限制。
// 进程内共享的单实例缓存，启动时构造一次并通过依赖注入传递；
// 所有读写经由同一把互斥锁序列化，保证并发 Issue/Verify 不会绕过
// 有效期检查或将尝试次数推过上限。
package verification

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fgwjs00/lndx-sub001/config"
	"github.com/fgwjs00/lndx-sub001/pkg/sms"
)

// ── 验证码用途 ──

const (
	PurposeRegister      = "register"
	PurposeLogin         = "login"
	PurposeResetPassword = "reset_password"
	PurposeBindPhone     = "bind_phone"
)

// ── 业务错误 ──

var (
	ErrCodeStillValid  = errors.New("验证码仍在有效期内，请勿重复获取")
	ErrDeliveryFailed  = errors.New("短信发送失败，请稍后重试")
	ErrCodeNotFound    = errors.New("验证码不存在或已过期")
	ErrCodeExpired     = errors.New("验证码已过期")
	ErrTooManyAttempts = errors.New("验证码尝试次数过多，请重新获取")
	ErrCodeMismatch    = errors.New("验证码错误")
)

// entry 单个 (phone, purpose) 键对应的验证码条目
type entry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// Store 验证码存储
// 每个 (phone, purpose) 键同一时刻至多存在一个有效条目；
// 条目在验证成功、尝试耗尽、读取时发现过期或后台清扫时删除
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	sender        sms.Sender
	logger        *zap.Logger
	codeTTL       time.Duration
	maxAttempts   int
	sweepInterval time.Duration

	nowFunc func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

// NewStore 创建验证码存储（进程级单例，由 main 构造后注入）
func NewStore(cfg *config.VerificationConfig, sender sms.Sender, logger *zap.Logger) *Store {
	codeTTL := cfg.CodeTTL
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	return &Store{
		entries:       make(map[string]*entry),
		sender:        sender,
		logger:        logger,
		codeTTL:       codeTTL,
		maxAttempts:   maxAttempts,
		sweepInterval: sweepInterval,
		nowFunc:       time.Now,
		stop:          make(chan struct{}),
	}
}

// Start 启动后台清扫协程
// 定期删除已过期条目，兜底只发不验场景下的内存增长
func (s *Store) Start() {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止后台清扫
func (s *Store) Stop() {
	s.stopped.Do(func() { close(s.stop) })
}

// Issue 生成并发送验证码
// 同键存在未过期条目时拒绝，retryAfter 为剩余秒数；
// 仅在短信发送成功后才写入缓存，发送失败返回 ErrDeliveryFailed
func (s *Store) Issue(ctx context.Context, phone, purpose string) (retryAfter int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	key := cacheKey(phone, purpose)

	if e, ok := s.entries[key]; ok {
		if now.Before(e.expiresAt) {
			return ceilSeconds(e.expiresAt.Sub(now)), ErrCodeStillValid
		}
		// 过期条目读取时顺带删除
		delete(s.entries, key)
	}

	code := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	message := fmt.Sprintf("您的验证码为 %s，%d分钟内有效，请勿泄露给他人。", code, int(s.codeTTL.Minutes()))

	if err := s.sender.Send(ctx, phone, message); err != nil {
		s.logger.Warn("验证码短信发送失败",
			zap.String("phone", phone),
			zap.String("purpose", purpose),
			zap.Error(err),
		)
		return 0, ErrDeliveryFailed
	}

	s.entries[key] = &entry{
		code:      code,
		expiresAt: now.Add(s.codeTTL),
		attempts:  0,
	}

	return 0, nil
}

// Verify 校验验证码，返回 nil 表示验证通过
// 状态机：不存在/过期 → ErrCodeNotFound/ErrCodeExpired（条目删除）；
// 尝试次数耗尽 → ErrTooManyAttempts（条目删除）；
// 不匹配 → ErrCodeMismatch（条目保留，尝试次数 +1）；
// 匹配 → 删除条目并返回 nil
func (s *Store) Verify(phone, purpose, submitted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(phone, purpose)
	e, ok := s.entries[key]
	if !ok {
		return ErrCodeNotFound
	}

	if !s.nowFunc().Before(e.expiresAt) {
		delete(s.entries, key)
		return ErrCodeExpired
	}

	// 尝试次数在比较之前检查
	if e.attempts >= s.maxAttempts {
		delete(s.entries, key)
		return ErrTooManyAttempts
	}

	// 每次进入比较的调用都计入尝试次数
	e.attempts++

	if e.code != submitted {
		return ErrCodeMismatch
	}

	delete(s.entries, key)
	return nil
}

// RemainingSeconds 验证码剩余有效秒数（向上取整）
// 条目不存在或已过期时返回 0
func (s *Store) RemainingSeconds(phone, purpose string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[cacheKey(phone, purpose)]
	if !ok {
		return 0
	}

	d := e.expiresAt.Sub(s.nowFunc())
	if d <= 0 {
		return 0
	}
	return ceilSeconds(d)
}

// sweep 删除所有已过期条目
func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("清扫过期验证码", zap.Int("removed", removed))
	}
}

func cacheKey(phone, purpose string) string {
	return phone + ":" + purpose
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}
