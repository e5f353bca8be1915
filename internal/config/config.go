package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maltedev/laptop-listing-extractor/internal/interstitial"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/parser"
	"github.com/maltedev/laptop-listing-extractor/internal/scraper"
	"github.com/spf13/viper"
)

const EnvPrefix = "EXTRACTOR"

// PrefilteredSearchURL is the laptop search with the default facets applied.
const PrefilteredSearchURL = "https://www.bestbuy.com/site/searchpage.jsp?browsedCategory=pcmcat138500050001&id=pcat17071&qp=currentprice_facet%3DPrice%7E500+to+1500%5Ebrand_facet%3DBrand%7EDell%5Ebrand_facet%3DBrand%7ELenovo%5Ebrand_facet%3DBrand%7EHP%5Ecustomerreviews_facet%3DCustomer+Rating%7E4+%26+Up&st=categoryid%24pcmcat138500050001"

type Config struct {
	Browser BrowserConfig     `mapstructure:"browser"`
	Waits   WaitConfig        `mapstructure:"waits"`
	Pacing  PacingConfig      `mapstructure:"pacing"`
	Site    SiteConfig        `mapstructure:"site"`
	Filter  models.FilterSpec `mapstructure:"filter"`
	Extract ExtractConfig     `mapstructure:"extract"`
	Reviews ReviewsConfig     `mapstructure:"reviews"`
	Output  OutputConfig      `mapstructure:"output"`
	Logging LoggingConfig     `mapstructure:"logging"`
	Events  EventsConfig      `mapstructure:"events"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Server  ServerConfig      `mapstructure:"server"`
}

type BrowserConfig struct {
	Headless      bool     `mapstructure:"headless"`
	InstallDriver bool     `mapstructure:"install_driver"`
	UserDataDir   string   `mapstructure:"user_data_dir" validate:"required"`
	UserAgent     string   `mapstructure:"user_agent" validate:"required"`
	WindowWidth   int      `mapstructure:"window_width" validate:"gte=800"`
	WindowHeight  int      `mapstructure:"window_height" validate:"gte=600"`
	Locale        string   `mapstructure:"locale" validate:"required"`
	Proxy         string   `mapstructure:"proxy" validate:"omitempty,url"`
	ExtraArgs     []string `mapstructure:"extra_args"`
	ScreenshotDir string   `mapstructure:"screenshot_dir" validate:"required"`
}

// WaitConfig holds the four independent timeouts plus the post-load settle.
type WaitConfig struct {
	Implicit     time.Duration `mapstructure:"implicit" validate:"gt=0"`
	Explicit     time.Duration `mapstructure:"explicit" validate:"gt=0"`
	PageLoad     time.Duration `mapstructure:"page_load" validate:"gt=0"`
	Script       time.Duration `mapstructure:"script" validate:"gt=0"`
	Settle       time.Duration `mapstructure:"settle" validate:"gte=0"`
	PopupProbe   time.Duration `mapstructure:"popup_probe" validate:"gt=0"`
	ContentProbe time.Duration `mapstructure:"content_probe" validate:"gt=0"`
}

type PacingConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Seed         int64         `mapstructure:"seed"`
	ActionMin    time.Duration `mapstructure:"action_min" validate:"gte=0"`
	ActionMax    time.Duration `mapstructure:"action_max" validate:"gtefield=ActionMin"`
	LazyLoad     time.Duration `mapstructure:"lazy_load" validate:"gte=0"`
	MonitorEvery time.Duration `mapstructure:"monitor_every" validate:"gt=0"`
	Scan         bool          `mapstructure:"scan"`
}

type SiteConfig struct {
	BaseURL       string         `mapstructure:"base_url" validate:"required,url"`
	CategoryURL   string         `mapstructure:"category_url" validate:"omitempty,url"`
	DefaultURL    string         `mapstructure:"default_url" validate:"required,url"`
	AlternateURLs []string       `mapstructure:"alternate_urls" validate:"dive,url"`
	SearchTerm    string         `mapstructure:"search_term"`
	Brands        []string       `mapstructure:"brands"`
	Selectors     SelectorConfig `mapstructure:"selectors"`
}

// SelectorConfig uses the textual locator form: plain CSS, or a "xpath=" or
// "text=" prefix.
type SelectorConfig struct {
	Container     string                 `mapstructure:"container" validate:"required"`
	Items         string                 `mapstructure:"items" validate:"required"`
	FallbackItems string                 `mapstructure:"fallback_items"`
	Country       string                 `mapstructure:"country"`
	CloseButtons  []string               `mapstructure:"close_buttons"`
	Overlays      []string               `mapstructure:"overlays"`
	Landmarks     []string               `mapstructure:"landmarks"`
	MenuPath      []string               `mapstructure:"menu_path"`
	SearchBox     string                 `mapstructure:"search_box"`
	SearchSubmit  string                 `mapstructure:"search_submit"`
	BrandFacet    string                 `mapstructure:"brand_facet"`
	RatingFacet   string                 `mapstructure:"rating_facet"`
	Card          parser.CardSelectors   `mapstructure:"card"`
	Review        parser.ReviewSelectors `mapstructure:"review"`
}

type ExtractConfig struct {
	MaxProducts      int           `mapstructure:"max_products" validate:"gte=1,lte=200"`
	MaxScrolls       int           `mapstructure:"max_scrolls" validate:"gte=0"`
	ScrollStep       int           `mapstructure:"scroll_step" validate:"gt=0"`
	MinFallbackItems int           `mapstructure:"min_fallback_items" validate:"gte=1"`
	ContainerWait    time.Duration `mapstructure:"container_wait" validate:"gt=0"`
	MonitorAfter     time.Duration `mapstructure:"monitor_after" validate:"gte=0"`
}

type ReviewsConfig struct {
	Products   int `mapstructure:"products" validate:"gte=0"`
	PerProduct int `mapstructure:"per_product" validate:"gte=0"`
}

type OutputConfig struct {
	DataDir       string        `mapstructure:"data_dir" validate:"required"`
	SnapshotFile  string        `mapstructure:"snapshot_file" validate:"required"`
	MaxAge        time.Duration `mapstructure:"max_age" validate:"gt=0"`
	ReportsDir    string        `mapstructure:"reports_dir" validate:"required"`
	DashboardFile string        `mapstructure:"dashboard_file" validate:"required"`
}

// SnapshotPath is where the extraction snapshot lives.
func (o OutputConfig) SnapshotPath() string {
	if filepath.IsAbs(o.SnapshotFile) {
		return o.SnapshotFile
	}
	return filepath.Join(o.DataDir, o.SnapshotFile)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// EventsConfig enables snapshot events on a Redis stream when RedisAddr is set.
type EventsConfig struct {
	RedisAddr     string `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	Stream        string `mapstructure:"stream" validate:"required"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:      true,
			UserDataDir:   filepath.Join(os.TempDir(), "bestbuy_stealth_cache"),
			UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			WindowWidth:   1366,
			WindowHeight:  768,
			Locale:        "en-US",
			ScreenshotDir: "logs",
		},
		Waits: WaitConfig{
			Implicit:     8 * time.Second,
			Explicit:     25 * time.Second,
			PageLoad:     45 * time.Second,
			Script:       30 * time.Second,
			Settle:       4 * time.Second,
			PopupProbe:   2 * time.Second,
			ContentProbe: 5 * time.Second,
		},
		Pacing: PacingConfig{
			Enabled:      true,
			ActionMin:    2 * time.Second,
			ActionMax:    5 * time.Second,
			LazyLoad:     1500 * time.Millisecond,
			MonitorEvery: 2 * time.Second,
			Scan:         true,
		},
		Site: SiteConfig{
			BaseURL:     "https://www.bestbuy.com",
			CategoryURL: "https://www.bestbuy.com/site/computers-pcs/laptops/abcat0502000.c?id=abcat0502000",
			DefaultURL:  PrefilteredSearchURL,
			AlternateURLs: []string{
				PrefilteredSearchURL,
				"https://www.bestbuy.com/site/computers-pcs/laptop-computers/abcat0502000.c?id=abcat0502000",
				"https://www.bestbuy.com/site/searchpage.jsp?st=laptops",
			},
			SearchTerm: "laptops",
			Brands:     []string{"Apple", "Dell", "HP", "Lenovo", "ASUS", "Acer", "Microsoft", "Samsung", "MSI", "Razer", "LG", "Alienware", "GIGABYTE"},
			Selectors: SelectorConfig{
				Container:     "#main-results",
				Items:         "li.sku-item",
				FallbackItems: "xpath=" + scraper.DefaultFallbackItems,
				Country:       "xpath=//a[contains(@class, 'us-link')] | //a[.//h4[normalize-space(.)='United States']]",
				CloseButtons:  clone(interstitial.DefaultCloseButtons),
				Overlays:      clone(interstitial.DefaultOverlays),
				Landmarks:     clone(interstitial.DefaultLandmarks),
				MenuPath: []string{
					"button.hamburger-menu-button",
					"xpath=//button[contains(normalize-space(.), 'Computers & Tablets')]",
					"xpath=//a[contains(normalize-space(.), 'Laptops')]",
				},
				SearchBox:    `input[data-testid="search-input"], #gh-search-input`,
				SearchSubmit: `button[data-testid="search-button"], .header-search-button`,
				BrandFacet:   "xpath=//section[contains(@class, 'facet')]//label[contains(normalize-space(.), '{brand}')]",
				RatingFacet:  "xpath=//section[contains(@class, 'facet')]//label[contains(normalize-space(.), '{rating} & Up')]",
				Card:         parser.DefaultCardSelectors(),
				Review:       parser.DefaultReviewSelectors(),
			},
		},
		Filter: models.FilterSpec{
			MinPrice:  500,
			MaxPrice:  1500,
			Brands:    []string{"Apple", "Dell", "HP", "Lenovo", "ASUS"},
			MinRating: 4.0,
		},
		Extract: ExtractConfig{
			MaxProducts:      20,
			MaxScrolls:       8,
			ScrollStep:       800,
			MinFallbackItems: 3,
			ContainerWait:    15 * time.Second,
			MonitorAfter:     5 * time.Second,
		},
		Output: OutputConfig{
			DataDir:       "data",
			SnapshotFile:  "raw_product_data.json",
			MaxAge:        24 * time.Hour,
			ReportsDir:    "reports",
			DashboardFile: "analytics_dashboard.html",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Events: EventsConfig{
			Stream: "stream:laptop_snapshots",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
	}
}

// clone keeps decoding from writing through to package-level defaults.
func clone(values []string) []string {
	return append([]string(nil), values...)
}

// Load reads configuration from defaults, an optional YAML file and
// EXTRACTOR_* environment variables, in increasing priority.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("extractor")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.install_driver", cfg.Browser.InstallDriver)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.locale", cfg.Browser.Locale)
	v.SetDefault("browser.proxy", cfg.Browser.Proxy)
	v.SetDefault("browser.screenshot_dir", cfg.Browser.ScreenshotDir)

	v.SetDefault("waits.implicit", cfg.Waits.Implicit)
	v.SetDefault("waits.explicit", cfg.Waits.Explicit)
	v.SetDefault("waits.page_load", cfg.Waits.PageLoad)
	v.SetDefault("waits.script", cfg.Waits.Script)
	v.SetDefault("waits.settle", cfg.Waits.Settle)
	v.SetDefault("waits.popup_probe", cfg.Waits.PopupProbe)
	v.SetDefault("waits.content_probe", cfg.Waits.ContentProbe)

	v.SetDefault("pacing.enabled", cfg.Pacing.Enabled)
	v.SetDefault("pacing.seed", cfg.Pacing.Seed)
	v.SetDefault("pacing.action_min", cfg.Pacing.ActionMin)
	v.SetDefault("pacing.action_max", cfg.Pacing.ActionMax)
	v.SetDefault("pacing.lazy_load", cfg.Pacing.LazyLoad)
	v.SetDefault("pacing.monitor_every", cfg.Pacing.MonitorEvery)
	v.SetDefault("pacing.scan", cfg.Pacing.Scan)

	v.SetDefault("site.base_url", cfg.Site.BaseURL)
	v.SetDefault("site.category_url", cfg.Site.CategoryURL)
	v.SetDefault("site.default_url", cfg.Site.DefaultURL)
	v.SetDefault("site.alternate_urls", cfg.Site.AlternateURLs)
	v.SetDefault("site.search_term", cfg.Site.SearchTerm)
	v.SetDefault("site.brands", cfg.Site.Brands)

	v.SetDefault("filter.min_price", cfg.Filter.MinPrice)
	v.SetDefault("filter.max_price", cfg.Filter.MaxPrice)
	v.SetDefault("filter.brands", cfg.Filter.Brands)
	v.SetDefault("filter.min_rating", cfg.Filter.MinRating)

	v.SetDefault("extract.max_products", cfg.Extract.MaxProducts)
	v.SetDefault("extract.max_scrolls", cfg.Extract.MaxScrolls)
	v.SetDefault("extract.scroll_step", cfg.Extract.ScrollStep)
	v.SetDefault("extract.min_fallback_items", cfg.Extract.MinFallbackItems)
	v.SetDefault("extract.container_wait", cfg.Extract.ContainerWait)
	v.SetDefault("extract.monitor_after", cfg.Extract.MonitorAfter)

	v.SetDefault("reviews.products", cfg.Reviews.Products)
	v.SetDefault("reviews.per_product", cfg.Reviews.PerProduct)

	v.SetDefault("output.data_dir", cfg.Output.DataDir)
	v.SetDefault("output.snapshot_file", cfg.Output.SnapshotFile)
	v.SetDefault("output.max_age", cfg.Output.MaxAge)
	v.SetDefault("output.reports_dir", cfg.Output.ReportsDir)
	v.SetDefault("output.dashboard_file", cfg.Output.DashboardFile)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("events.redis_addr", cfg.Events.RedisAddr)
	v.SetDefault("events.redis_password", cfg.Events.RedisPassword)
	v.SetDefault("events.redis_db", cfg.Events.RedisDB)
	v.SetDefault("events.stream", cfg.Events.Stream)

	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
}

var validate = validator.New()

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Site.AlternateURLs) == 0 && c.Site.CategoryURL == "" && c.Site.Selectors.SearchBox == "" {
		return fmt.Errorf("invalid config: site needs alternate_urls, category_url or selectors.search_box")
	}
	return nil
}
