package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/Abraxas-365/shortlist/internal/ai/questiongen"
	"github.com/Abraxas-365/shortlist/internal/extract"
	"github.com/Abraxas-365/shortlist/internal/profile"
	"github.com/Abraxas-365/shortlist/pkg/fsx"
	"github.com/Abraxas-365/shortlist/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/shortlist/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/Abraxas-365/shortlist/ranking/enrich"
	"github.com/Abraxas-365/shortlist/ranking/leaderboard"
	"github.com/Abraxas-365/shortlist/ranking/rankingapi"
	"github.com/Abraxas-365/shortlist/ranking/rankingsrv"
	"github.com/Abraxas-365/shortlist/ranking/runinfra"
	"github.com/Abraxas-365/shortlist/ranking/sessionstore"
	"github.com/Abraxas-365/shortlist/ranking/similarity"
	"github.com/Abraxas-365/shortlist/ranking/worker"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	// Infrastructure
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client

	// Pipeline
	SessionStore *sessionstore.Store
	Scorer       *similarity.Scorer
	Enricher     *enrich.Enricher
	Fuser        *leaderboard.Fuser

	// Services
	RankingService *rankingsrv.Service

	// API Handlers
	RankingHandlers *rankingapi.Handlers

	// Workers
	Sweeper   *worker.Sweeper
	RunWorker *worker.RunWorker
}

// NewContainer initializes the dependency injection container
func NewContainer() *Container {
	c := &Container{}
	c.initInfrastructure()
	c.initServices()
	return c
}

func (c *Container) initInfrastructure() {
	// 1. Session storage backend
	backend := os.Getenv("STORAGE_BACKEND")
	switch backend {
	case "s3":
		awsRegion := os.Getenv("AWS_REGION")
		awsBucket := os.Getenv("AWS_BUCKET")
		cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
		if err != nil {
			logx.Fatalf("unable to load SDK config, %v", err)
		}
		c.S3Client = s3.NewFromConfig(cfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, awsBucket, "shortlist")
		logx.Infof("Session storage: s3://%s/shortlist", awsBucket)
	case "local", "":
		dir := os.Getenv("SESSION_DIR")
		if dir == "" {
			dir = "./data/sessions"
		}
		localFS, err := fsxlocal.NewLocalFileSystem(dir)
		if err != nil {
			logx.Fatalf("Failed to initialize session directory %s: %v", dir, err)
		}
		c.FileSystem = localFS
		logx.Infof("Session storage: %s", dir)
	default:
		logx.Fatalf("Unknown STORAGE_BACKEND %q (want local or s3)", backend)
	}

	// 2. Redis Connection (optional, enables the profile cache)
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASS"),
			DB:       0,
		})
		if err := c.Redis.Ping(context.Background()).Err(); err != nil {
			logx.Warnf("Failed to connect to Redis, disabling profile cache: %v", err)
			c.Redis = nil
		}
	}
}

func (c *Container) initServices() {
	// --- Pipeline Stages ---
	c.SessionStore = sessionstore.New(c.FileSystem)
	c.Scorer = similarity.NewScorer(c.FileSystem)
	c.Fuser = leaderboard.NewFuser(c.FileSystem)

	var analyzer ranking.ProfileAnalyzer = profile.NewGitHubAnalyzer(os.Getenv("GITHUB_TOKEN"))
	if c.Redis != nil {
		ttl := envDuration("PROFILE_CACHE_TTL", 6*time.Hour)
		analyzer = profile.NewCachedAnalyzer(analyzer, c.Redis, ttl)
	}
	c.Enricher = enrich.NewEnricher(c.FileSystem, analyzer, envInt("ENRICH_WORKERS", enrich.DefaultWorkers))

	// --- Collaborators ---
	extractor := extract.NewExtractor()

	var questions ranking.QuestionGenerator
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		questions = questiongen.NewQuestionGenerator(apiKey)
	} else {
		logx.Warn("OPENAI_API_KEY is not set, question generation is disabled")
	}

	// --- Service & Handlers ---
	c.RankingService = rankingsrv.NewService(
		c.SessionStore,
		c.Scorer,
		c.Enricher,
		c.Fuser,
		extractor,
		questions,
	)
	c.RankingHandlers = rankingapi.NewHandlers(c.RankingService)

	// --- Async Runs (require Redis) ---
	if c.Redis != nil {
		queue := runinfra.NewRedisRunQueue(c.Redis, "shortlist:runs")
		runs := runinfra.NewFSRunRepository(c.FileSystem)
		c.RankingService.EnableAsync(queue, runs)
		c.RunWorker = worker.NewRunWorker(c.RankingService, queue, envInt("RUN_WORKERS", 2))
	} else {
		logx.Warn("REDIS_ADDR is not set, async runs are disabled")
	}

	// --- Workers ---
	maxAge := envDuration("SESSION_MAX_AGE", 24*time.Hour)
	interval := envDuration("SWEEP_INTERVAL", time.Hour)
	c.Sweeper = worker.NewSweeper(c.SessionStore, maxAge, interval)
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logx.Warnf("Invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		logx.Warnf("Invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return v
}
