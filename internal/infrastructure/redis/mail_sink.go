package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/application/harness"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

const (
	mailKeyPrefix  = "mail:"
	defaultMailTTL = time.Hour
)

// Mail is one captured message as stored in the sink.
type Mail struct {
	Kind   string    `json:"kind"`
	Email  string    `json:"email"`
	Token  string    `json:"token"`
	URL    string    `json:"url"`
	SentAt time.Time `json:"sent_at"`
}

// MailSink is a Notifier that appends mail to a per-recipient Redis list,
// so tests running in another process can pick up the reset link.
type MailSink struct {
	rdb *goredis.Client
	ttl time.Duration
	now func() time.Time
}

var _ harness.Notifier = (*MailSink)(nil)

func NewMailSink(c *Client, ttl time.Duration) *MailSink {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	if ttl <= 0 {
		ttl = defaultMailTTL
	}
	return &MailSink{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *MailSink) NotifyPasswordReset(ctx context.Context, msg harness.PasswordResetMail) error {
	if msg.Email == "" {
		return domain.ErrMissingField("email")
	}
	if s.rdb == nil {
		return domain.ErrRedisUnavailable(errors.New("redis mail sink not configured"))
	}

	data, err := json.Marshal(Mail{
		Kind:   "password_reset",
		Email:  msg.Email,
		Token:  msg.Token,
		URL:    msg.URL,
		SentAt: s.now().UTC(),
	})
	if err != nil {
		return domain.ErrInternal(err)
	}

	key := mailKeyPrefix + msg.Email
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, key, data)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return domain.ErrRedisUnavailable(err)
	}

	logger.WithCtx(ctx).Debug().Str("email", msg.Email).Str("key", key).Msg("reset mail captured")
	return nil
}

// LastMail returns the most recent mail captured for email.
func (s *MailSink) LastMail(ctx context.Context, email string) (Mail, bool, error) {
	if s.rdb == nil {
		return Mail{}, false, domain.ErrRedisUnavailable(errors.New("redis mail sink not configured"))
	}
	raw, err := s.rdb.LIndex(ctx, mailKeyPrefix+email, -1).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Mail{}, false, nil
	}
	if err != nil {
		return Mail{}, false, domain.ErrRedisUnavailable(err)
	}

	var m Mail
	if err := json.Unmarshal(raw, &m); err != nil {
		return Mail{}, false, domain.ErrInternal(err)
	}
	return m, true, nil
}

// Purge deletes every captured mail.
func (s *MailSink) Purge(ctx context.Context) error {
	if s.rdb == nil {
		return domain.ErrRedisUnavailable(errors.New("redis mail sink not configured"))
	}
	iter := s.rdb.Scan(ctx, 0, mailKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}
