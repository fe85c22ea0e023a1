package cmd

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	globalConfig "github.com/AzielCF/az-post/config"
	coreDB "github.com/AzielCF/az-post/core/database"
	domainPayment "github.com/AzielCF/az-post/domains/payment"
	domainReview "github.com/AzielCF/az-post/domains/review"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	integrationLinkedin "github.com/AzielCF/az-post/integrations/linkedin"
	integrationOpenai "github.com/AzielCF/az-post/integrations/openai"
	integrationSlack "github.com/AzielCF/az-post/integrations/slack"
	"github.com/AzielCF/az-post/pkg/postworker"
	"github.com/AzielCF/az-post/pkg/utils"
	"github.com/AzielCF/az-post/repository"
	"github.com/AzielCF/az-post/usecase"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Repositories
	scheduleDB   *sql.DB
	scheduleRepo repository.IScheduleRepository
	paymentRepo  repository.IPaymentRepository

	// Integrations
	contentGenerator *integrationOpenai.Generator
	publisher        *integrationLinkedin.Publisher
	notifier         *integrationSlack.Notifier

	// Usecases
	scheduleUsecase domainSchedule.IScheduleUsecase
	reviewUsecase   domainReview.IReviewUsecase
	paymentUsecase  domainPayment.IPaymentUsecase
	executorService *usecase.ExecutorService
	workerPool      *postworker.Pool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Short: "LinkedIn scheduled post engine",
	Long: `Schedule, review and publish LinkedIn posts over an http api,
with cron recurrence, team approval flows and AI content generation.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

// initEnvConfig loads configuration from environment variables
func initEnvConfig() {
	if envPort := viper.GetString("app_port"); envPort != "" {
		globalConfig.AppPort = envPort
	}
	if envDebug := viper.GetBool("app_debug"); envDebug {
		globalConfig.AppDebug = envDebug
	}
	envBasicAuth := viper.GetString("app_basic_auth")
	if envBasicAuth == "" {
		envBasicAuth = os.Getenv("APP_BASIC_AUTH")
	}
	if envBasicAuth != "" {
		globalConfig.AppBasicAuthCredential = strings.Split(envBasicAuth, ",")
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" {
		globalConfig.AppBasePath = envBasePath
	}
	if envTrustedProxies := viper.GetString("app_trusted_proxies"); envTrustedProxies != "" {
		globalConfig.AppTrustedProxies = strings.Split(envTrustedProxies, ",")
	}

	if envDBURI := viper.GetString("db_uri"); envDBURI != "" {
		globalConfig.DBURI = envDBURI
	}

	if envFrontendURL := viper.GetString("frontend_url"); envFrontendURL != "" {
		globalConfig.FrontendURL = envFrontendURL
	}

	if envKey := viper.GetString("openai_api_key"); envKey != "" {
		globalConfig.OpenAIAPIKey = envKey
	}
	if envModel := viper.GetString("openai_chat_model"); envModel != "" {
		globalConfig.OpenAIChatModel = envModel
	}
	if envModel := viper.GetString("openai_image_model"); envModel != "" {
		globalConfig.OpenAIImageModel = envModel
	}

	if envToken := viper.GetString("slack_bot_token"); envToken != "" {
		globalConfig.SlackBotToken = envToken
	}

	if envInterval := viper.GetInt("executor_interval_seconds"); envInterval > 0 {
		globalConfig.ExecutorIntervalSeconds = envInterval
	}
	if envWorkers := viper.GetInt("post_worker_pool_size"); envWorkers > 0 {
		globalConfig.PostWorkerPoolSize = envWorkers
	}
	if envQueue := viper.GetInt("post_worker_queue_size"); envQueue > 0 {
		globalConfig.PostWorkerQueueSize = envQueue
	}
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPort,
		"port", "p",
		globalConfig.AppPort,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.AppDebug,
		"debug", "d",
		globalConfig.AppDebug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&globalConfig.AppBasicAuthCredential,
		"basic-auth", "b",
		globalConfig.AppBasicAuthCredential,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppBasePath,
		"base-path", "",
		globalConfig.AppBasePath,
		`base path for subpath deployment --base-path <string> | example: --base-path="/azpost"`,
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&globalConfig.AppTrustedProxies,
		"trusted-proxies", "",
		globalConfig.AppTrustedProxies,
		`trusted proxy IP ranges for reverse proxy deployments --trusted-proxies <string> | example: --trusted-proxies="0.0.0.0/0"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBURI,
		"db-uri", "",
		globalConfig.DBURI,
		`the database uri for schedules and the payment ledger --db-uri <string> | example: --db-uri="file:storages/azpost.db?_foreign_keys=on"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.FrontendURL,
		"frontend-url", "",
		globalConfig.FrontendURL,
		`public base url for review links --frontend-url <string> | example: --frontend-url="https://app.example.com"`,
	)
}

func initApp() {
	if globalConfig.AppDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := utils.CreateFolder(globalConfig.PathStorages); err != nil {
		logrus.Errorln(err)
	}

	ctx := context.Background()

	// Side tables (payments, platform connections) ride on gorm and follow
	// DB_URI, which may point at postgres.
	gormDB, err := coreDB.NewDatabase(globalConfig.DBURI, globalConfig.AppDebug)
	if err != nil {
		logrus.Fatalf("failed to open gorm db: %v", err)
	}

	// The schedule store speaks sqlite. When DB_URI is a sqlite DSN it shares
	// gorm's handle, otherwise it gets its own file under the storage folder.
	if strings.HasPrefix(globalConfig.DBURI, "postgres") {
		scheduleDB, err = sql.Open("sqlite3", "file:"+globalConfig.PathStorages+"/azpost.db?_foreign_keys=on")
	} else {
		scheduleDB, err = gormDB.DB()
	}
	if err != nil {
		logrus.Fatalf("failed to open schedule db: %v", err)
	}

	scheduleRepo = repository.NewSQLiteRepository(scheduleDB)
	if err := scheduleRepo.Init(ctx); err != nil {
		logrus.Fatalf("failed to init schedule repo: %v", err)
	}

	paymentGormRepo := repository.NewPaymentGormRepository(gormDB)
	if err := paymentGormRepo.InitSchema(ctx); err != nil {
		logrus.Fatalf("failed to migrate payments table: %v", err)
	}
	paymentRepo = paymentGormRepo

	// Integrations
	contentGenerator = integrationOpenai.NewGenerator(
		globalConfig.OpenAIAPIKey,
		globalConfig.OpenAIChatModel,
		globalConfig.OpenAIImageModel,
	)

	publisher = integrationLinkedin.NewPublisher(gormDB, globalConfig.LinkedInAPIBaseURL)
	if err := publisher.InitSchema(ctx); err != nil {
		logrus.Fatalf("failed to migrate linkedin_connections table: %v", err)
	}

	notifier = integrationSlack.NewNotifier(gormDB, globalConfig.SlackBotToken)
	if err := notifier.InitSchema(ctx); err != nil {
		logrus.Fatalf("failed to migrate slack_connections table: %v", err)
	}

	// Usecases
	paymentUsecase = usecase.NewPaymentService(paymentRepo)
	scheduleUsecase = usecase.NewScheduleService(scheduleRepo, notifier)
	reviewUsecase = usecase.NewReviewService(scheduleRepo)

	workerPool = postworker.NewPool(globalConfig.PostWorkerPoolSize, globalConfig.PostWorkerQueueSize)
	executorService = usecase.NewExecutorService(scheduleRepo, paymentUsecase, contentGenerator, publisher, workerPool)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of database connections and workers.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if workerPool != nil {
		workerPool.Stop()
	}

	if scheduleDB != nil {
		if err := scheduleDB.Close(); err != nil {
			logrus.Errorf("[APP] Failed to close schedule db: %v", err)
		}
	}

	if sqlDB, err := coreDB.GetLegacyDB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.Errorf("[APP] Failed to close gorm db: %v", err)
		}
	}

	logrus.Info("[APP] Shutdown complete")
}
