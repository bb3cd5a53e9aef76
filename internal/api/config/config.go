package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.max_idle", 10)
	viper.SetDefault("database.max_open", 100)
	viper.SetDefault("database.max_lifetime", 60)
	viper.SetDefault("jwt.expire_hour", 24)
	viper.SetDefault("logstash.level", "info")
	viper.SetDefault("comment.max_depth", 1)
	viper.SetDefault("comment.deleted_placeholder", "this comment has been deleted")
	viper.SetDefault("comment.secret_placeholder", "this comment is only visible to its author and the post owner")
	viper.SetDefault("comment.moderator_roles", []string{"ADMIN"})
	viper.SetDefault("cron.counter_reconcile", "0 */5 * * * *")
	viper.SetDefault("kafka_comment_consumer.topic", "canal-post-comments")
	viper.SetDefault("kafka_comment_consumer.group_id", "agora-comment-consumer")
}
