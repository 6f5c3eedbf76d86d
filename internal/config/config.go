// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultYears is the year-query list the FOIA index is crawled under.
// The trailing entries are not typos: the collection really files a
// handful of documents under 1997, 1993, and 1905.
var defaultYears = []int{
	2018, 2017, 2016, 2015, 2014, 2013, 2012, 2011, 2010, 2009, 2008,
	2007, 2006, 2005, 2004, 2003, 2002, 2001, 1997, 1993, 1905,
}

// Config captures every configuration knob loaded via Viper.
type Config struct {
	DB       DBConfig       `mapstructure:"db"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Download DownloadConfig `mapstructure:"download"`
	Index    IndexConfig    `mapstructure:"index"`
}

// DBConfig locates the record store shared by the crawl and download
// stages.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlConfig governs the listing crawl.
type CrawlConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Years          []int         `mapstructure:"years"`
	PageDelay      time.Duration `mapstructure:"page_delay"`
	DetailDelay    time.Duration `mapstructure:"detail_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DownloadConfig governs the bulk-download stage.
type DownloadConfig struct {
	OutDir            string `mapstructure:"out_dir"`
	Force             bool   `mapstructure:"force"`
	IncludeDuplicates bool   `mapstructure:"include_duplicates"`
}

// IndexConfig governs the static index generator.
type IndexConfig struct {
	Root     string `mapstructure:"root"`
	Template string `mapstructure:"template"`
	Output   string `mapstructure:"output"`
}

// Load builds a Config from disk and environment. An empty path means
// defaults plus environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", "foia_documents.db")
	v.SetDefault("logging.development", false)

	v.SetDefault("crawl.base_url", "https://www.aclu.org/foia-collections/nsa-documents-search")
	v.SetDefault("crawl.user_agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/129.0 Safari/537.36")
	v.SetDefault("crawl.years", defaultYears)
	v.SetDefault("crawl.page_delay", "2s")
	v.SetDefault("crawl.detail_delay", "400ms")
	v.SetDefault("crawl.request_timeout", "20s")

	v.SetDefault("download.out_dir", "downloads")
	v.SetDefault("download.force", false)
	v.SetDefault("download.include_duplicates", false)

	v.SetDefault("index.root", ".")
	v.SetDefault("index.template", "templates.html")
	v.SetDefault("index.output", "index_local.html")
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must be set")
	}
	if c.Crawl.BaseURL == "" {
		return fmt.Errorf("crawl.base_url must be set")
	}
	if _, err := url.ParseRequestURI(c.Crawl.BaseURL); err != nil {
		return fmt.Errorf("crawl.base_url is not a valid URL: %w", err)
	}
	if c.Crawl.UserAgent == "" {
		return fmt.Errorf("crawl.user_agent must be set")
	}
	if len(c.Crawl.Years) == 0 {
		return fmt.Errorf("crawl.years must include at least one year")
	}
	if c.Crawl.PageDelay < 0 || c.Crawl.DetailDelay < 0 {
		return fmt.Errorf("crawl delays must be >= 0")
	}
	if c.Crawl.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout must be > 0")
	}
	if c.Download.OutDir == "" {
		return fmt.Errorf("download.out_dir must be set")
	}
	if c.Index.Root == "" || c.Index.Template == "" || c.Index.Output == "" {
		return fmt.Errorf("index.root, index.template, and index.output must be set")
	}
	return nil
}
