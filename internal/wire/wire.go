package wire

import (
	"Agora/internal/api"
	"Agora/internal/api/config"
	"Agora/internal/api/handler"
	"Agora/internal/job"
	"Agora/internal/pkg/cron"
	"Agora/internal/pkg/kafka"
	"Agora/internal/pkg/mongo"
	"Agora/internal/repository"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router *gin.Engine
	DB     *gorm.DB
	// KafkaManager 未配置 brokers 时为 nil
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoConn *mongoDB.Database, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepo(db)
	uow := repository.NewUnitOfWork(db, commentRepo, postRepo)
	sysBoxRepo := mongo.NewSysBoxRepo(mongoConn)

	commentService := service.NewCommentService(
		uow, commentRepo, postRepo, userRepo,
		service.NewModeratorAuthorizer(cfg.Comment.ModeratorRoles),
		service.CommentOptions{
			MaxDepth:           cfg.Comment.MaxDepth,
			DeletedPlaceholder: cfg.Comment.DeletedPlaceholder,
			SecretPlaceholder:  cfg.Comment.SecretPlaceholder,
		},
	)
	sysBoxService := service.NewSysBoxService(sysBoxRepo, userRepo, postRepo, commentRepo)

	handlers := &api.HandlersGroup{
		CommentHandler: handler.NewCommentHandler(commentService),
		SysBoxHandler:  handler.NewSysBoxHandler(sysBoxService),
	}

	router := api.SetupRouter(handlers, cfg)

	cronMgr := cron.NewCronManager(cfg.Cron.CounterReconcile, job.NewCommentCounterJob(commentService))

	var kafkaMgr *kafka.ConsumerManager
	if len(cfg.Kafka.Brokers) > 0 {
		var err error
		kafkaMgr, err = kafka.NewConsumerManager(cfg, sysBoxService)
		if err != nil {
			return nil, err
		}
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}
