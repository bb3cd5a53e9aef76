package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSlowThreshold = 100 * time.Millisecond

type RedisLoggerHook struct{}

func NewRedisLogger() *RedisLoggerHook {
	return &RedisLoggerHook{}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		logRedisResult(ctx, cmd.Name(), cmdArgs(cmd), time.Since(start), err)
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		logRedisResult(ctx, "pipeline", fmt.Sprintf("%d cmds", len(cmds)), time.Since(start), err)
		return err
	}
}

func cmdArgs(cmd redis.Cmder) string {
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	}
	return fmt.Sprint(cmd.Args())
}

// logRedisResult 缓存未命中、rename 源键不存在属于正常分支，不记错误
func logRedisResult(ctx context.Context, name, args string, elapsed time.Duration, err error) {
	fields := []any{
		log.String("command", name),
		log.String("args", args),
		log.Duration("latency", elapsed),
	}
	if err != nil {
		msg := err.Error()
		if errors.Is(err, redis.Nil) || strings.Contains(msg, "no such key") {
			return
		}
		if name == "client" && strings.Contains(msg, "setinfo") {
			return
		}
		log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		return
	}
	if elapsed > redisSlowThreshold {
		log.WarnContext(ctx, "Redis Slow", fields...)
	}
}
