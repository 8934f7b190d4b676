// Package profiling starts the optional pprof listener and Pyroscope agent.
package profiling

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/jonesrussell/company-url-collector/infrastructure/logger"
)

// Config controls both profilers. Both are off by default.
type Config struct {
	PprofEnabled bool   `env:"ENABLE_PROFILING" yaml:"pprof_enabled"`
	PprofAddr    string `env:"PPROF_ADDR"       yaml:"pprof_addr"`

	PyroscopeEnabled     bool   `env:"ENABLE_CONTINUOUS_PROFILING" yaml:"pyroscope_enabled"`
	PyroscopeServerURL   string `env:"PYROSCOPE_SERVER_URL"        yaml:"pyroscope_server_url"`
	PyroscopeEnvironment string `env:"PYROSCOPE_ENVIRONMENT"       yaml:"pyroscope_environment"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.PprofAddr == "" {
		c.PprofAddr = "localhost:6060"
	}
	if c.PyroscopeServerURL == "" {
		c.PyroscopeServerURL = "http://pyroscope:4040"
	}
	if c.PyroscopeEnvironment == "" {
		c.PyroscopeEnvironment = "development"
	}
}

// Profiler owns whatever was started and stops it on Stop.
type Profiler struct {
	pprofServer *http.Server
	pyroscope   *pyroscope.Profiler
}

// Start launches the enabled profilers. A nil Profiler is never returned, so
// callers can always defer Stop.
func Start(cfg Config, service, version string, log logger.Logger) (*Profiler, error) {
	cfg.SetDefaults()
	p := &Profiler{}

	if cfg.PprofEnabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		p.pprofServer = &http.Server{Addr: cfg.PprofAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("Starting pprof server", logger.String("address", cfg.PprofAddr))
			if err := p.pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("pprof server error", logger.Error(err))
			}
		}()
	}

	if cfg.PyroscopeEnabled {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		prof, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "urlcollector." + service,
			ServerAddress:   cfg.PyroscopeServerURL,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
				pyroscope.ProfileGoroutines,
			},
			Tags: map[string]string{
				"environment": cfg.PyroscopeEnvironment,
				"version":     version,
				"hostname":    hostname,
				"go_version":  runtime.Version(),
			},
		})
		if err != nil {
			return p, err
		}
		p.pyroscope = prof
		log.Info("Pyroscope profiling started", logger.String("server", cfg.PyroscopeServerURL))
	}

	return p, nil
}

// Stop shuts down the profilers that were started.
func (p *Profiler) Stop() error {
	var errs []error
	if p.pprofServer != nil {
		errs = append(errs, p.pprofServer.Close())
	}
	if p.pyroscope != nil {
		errs = append(errs, p.pyroscope.Stop())
	}
	return errors.Join(errs...)
}
