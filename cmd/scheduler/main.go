package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

func main() {
	var (
		reminderSpec string
		digestSpec   string
		holidaySpec  string
		runReminders bool
		runDigest    bool
		runHolidays  bool
	)

	flag.StringVar(&reminderSpec, "reminder-cron", "0 9 * * FRI", "Cron spec for the submission reminder run")
	flag.StringVar(&digestSpec, "digest-cron", "0 8 * * MON", "Cron spec for the weekly digest run")
	flag.StringVar(&holidaySpec, "holiday-cron", "0 3 * * *", "Cron spec for the holiday calendar sync")
	flag.BoolVar(&runReminders, "run-reminders", false, "Run the reminder job once and exit")
	flag.BoolVar(&runDigest, "run-digest", false, "Run the digest job once and exit")
	flag.BoolVar(&runHolidays, "run-holidays", false, "Run the holiday sync once and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(&utils.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := utils.GetLogger()

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	var redisClient database.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = database.InitializeRedis(cfg.Redis)
		if err != nil {
			logger.Warn("Redis not available, holiday sync will skip caching", utils.LogFields{
				"error": err.Error(),
			})
			redisClient = nil
		}
	}

	notifications := services.NewNotificationService(db, services.NewLogNotifier(logger), logger)
	holidays := services.NewHolidayService(db, redisClient, cfg.Holiday, logger)

	jobs := &jobRunner{
		notifications: notifications,
		holidays:      holidays,
		digestOffset:  cfg.Notification.DigestWeekOffset,
		logger:        logger,
	}

	// One-shot mode for manual runs and container jobs.
	if runReminders || runDigest || runHolidays {
		ctx := context.Background()
		if runReminders {
			jobs.reminders(ctx)
		}
		if runDigest {
			jobs.digest(ctx)
		}
		if runHolidays {
			jobs.holidaySync(ctx)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(reminderSpec, func() { jobs.reminders(context.Background()) }); err != nil {
		logger.Fatal("Invalid reminder cron spec", err)
	}
	if _, err := c.AddFunc(digestSpec, func() { jobs.digest(context.Background()) }); err != nil {
		logger.Fatal("Invalid digest cron spec", err)
	}
	if _, err := c.AddFunc(holidaySpec, func() { jobs.holidaySync(context.Background()) }); err != nil {
		logger.Fatal("Invalid holiday cron spec", err)
	}

	logger.Info("Scheduler starting", utils.LogFields{
		"reminder_cron": reminderSpec,
		"digest_cron":   digestSpec,
		"holiday_cron":  holidaySpec,
	})
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Scheduler stopping...")
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Timed out waiting for running jobs", nil)
	}
	logger.Info("Scheduler stopped")
}

type jobRunner struct {
	notifications *services.NotificationService
	holidays      *services.HolidayService
	digestOffset  int
	logger        utils.Logger
}

func (j *jobRunner) reminders(ctx context.Context) {
	year, week := services.CurrentWeek()
	sent, err := j.notifications.RunReminders(ctx, year, week)
	if err != nil {
		j.logger.Error("Reminder run failed", err, utils.LogFields{"work_year": year, "work_week": week})
		return
	}
	j.logger.Info("Reminder run completed", utils.LogFields{
		"work_year": year,
		"work_week": week,
		"sent":      sent,
	})
}

func (j *jobRunner) digest(ctx context.Context) {
	year, week := services.DigestWeek(j.digestOffset)
	sent, err := j.notifications.RunDigest(ctx, year, week)
	if err != nil {
		j.logger.Error("Digest run failed", err, utils.LogFields{"work_year": year, "work_week": week})
		return
	}
	j.logger.Info("Digest run completed", utils.LogFields{
		"work_year": year,
		"work_week": week,
		"sent":      sent,
	})
}

func (j *jobRunner) holidaySync(ctx context.Context) {
	year := time.Now().UTC().Year()
	for _, y := range []int{year, year + 1} {
		result := j.holidays.SyncYear(ctx, y)
		fields := utils.LogFields{"year": y, "synced": result.Synced}
		if len(result.Errors) > 0 {
			fields["errors"] = result.Errors
			j.logger.Warn("Holiday sync finished with errors", fields)
			continue
		}
		j.logger.Info("Holiday sync completed", fields)
	}
}
