package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Scraper struct {
		URL string `yaml:"url"`
	} `yaml:"scraper"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Schedule struct {
		WorkingDays    []string `yaml:"working_days"` // "monday".."sunday"
		StartHour      int      `yaml:"start_hour"`
		EndHour        int      `yaml:"end_hour"`
		Timezone       string   `yaml:"timezone"`
		CallsPerHour   int      `yaml:"calls_per_hour"`
		MaxConcurrent  int      `yaml:"max_concurrent"`
		LunchStartHour int      `yaml:"lunch_start_hour"`
		LunchEndHour   int      `yaml:"lunch_end_hour"`
	} `yaml:"schedule"`

	Loop struct {
		CycleSeconds      int `yaml:"cycle_seconds"`
		ErrorBackoffSecs  int `yaml:"error_backoff_seconds"`
		QuotaBackoffSecs  int `yaml:"quota_backoff_seconds"`
		ScrapeIntervalHrs int `yaml:"scrape_interval_hours"`
		MaxLeadsPerScrape int `yaml:"max_leads_per_scrape"`
		MaxCallsPerCycle  int `yaml:"max_calls_per_cycle"`
		ReportHour        int `yaml:"report_hour"`
	} `yaml:"loop"`

	Orchestrator struct {
		MonitorSeconds int `yaml:"monitor_seconds"`
		HealthSeconds  int `yaml:"health_seconds"`
		ScrapeAllHour  int `yaml:"scrape_all_hour"`
		ReportAllHour  int `yaml:"report_all_hour"`
		TrialDays      int `yaml:"trial_days"`
	} `yaml:"orchestrator"`

	SalesReps []SalesRep `yaml:"sales_reps"`

	Growth struct {
		Enabled          bool     `yaml:"enabled"`
		Niches           []string `yaml:"niches"`
		TargetCities     []string `yaml:"target_cities"`
		MonthlyCallLimit int      `yaml:"monthly_call_limit"`
	} `yaml:"growth"`
}

// SalesRep is one human rep hot leads can be transferred to.
type SalesRep struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Phone           string   `yaml:"phone"`
	Specializations []string `yaml:"specializations"`
	MaxConcurrent   int      `yaml:"max_concurrent"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "UTC"
	}
	if c.Scraper.URL == "" {
		c.Scraper.URL = "http://localhost:9090"
	}
}
