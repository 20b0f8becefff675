package printer

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/infrastructure/config"
)

// ErrPrinterNotFound is returned when no host on the unit's subnet accepts
// a connection on the printer port.
var ErrPrinterNotFound = fmt.Errorf("no printer found")

// dialFunc abstracts net.DialTimeout for tests.
type dialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// Discoverer locates the raw-socket printer for a unit by probing its
// subnet, caching hits per routing key.
type Discoverer struct {
	cache        AddressCache
	port         int
	probeTimeout time.Duration
	scanWorkers  int
	cacheTTL     time.Duration
	logger       *zap.Logger

	dial dialFunc
}

// NewDiscoverer creates a discoverer with the given cache backend.
func NewDiscoverer(cache AddressCache, cfg config.PrinterConfig, logger *zap.Logger) *Discoverer {
	return &Discoverer{
		cache:        cache,
		port:         cfg.Port,
		probeTimeout: cfg.ProbeTimeout,
		scanWorkers:  cfg.ScanWorkers,
		cacheTTL:     cfg.CacheTTL,
		logger:       logger.Named("printer"),
		dial:         net.DialTimeout,
	}
}

// Discover returns the host:port address of the unit's printer, scanning
// the subnet on a cache miss. A cached address that no longer answers is
// forgotten and the subnet rescanned once.
func (d *Discoverer) Discover(ctx context.Context, routingKey string) (string, error) {
	if addr, ok, err := d.cache.Get(ctx, routingKey); err != nil {
		d.logger.Warn("printer cache read failed", zap.Error(err))
	} else if ok {
		if d.probe(addr) {
			return addr, nil
		}
		d.logger.Info("cached printer address no longer answers, rescanning",
			zap.String("routing_key", routingKey),
			zap.String("addr", addr),
		)
		if err := d.cache.Forget(ctx, routingKey); err != nil {
			d.logger.Warn("printer cache invalidation failed", zap.Error(err))
		}
	}

	addr, err := d.scan(ctx, routingKey)
	if err != nil {
		return "", err
	}

	if err := d.cache.Set(ctx, routingKey, addr, d.cacheTTL); err != nil {
		d.logger.Warn("printer cache write failed", zap.Error(err))
	}
	return addr, nil
}

// scan probes all candidate hosts concurrently and returns the first that
// accepts a connection on the printer port.
func (d *Discoverer) scan(ctx context.Context, routingKey string) (string, error) {
	hosts := ProbeSet(routingKey)
	if len(hosts) == 0 {
		return "", fmt.Errorf("unit %q has no printer subnet: %w", routingKey, ErrPrinterNotFound)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	found := make(chan string, 1)

	var wg sync.WaitGroup
	for i := 0; i < d.scanWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				if scanCtx.Err() != nil {
					return
				}
				addr := net.JoinHostPort(host, strconv.Itoa(d.port))
				if d.probe(addr) {
					select {
					case found <- addr:
						cancel()
					default:
					}
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, host := range hosts {
			select {
			case jobs <- host:
			case <-scanCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(found)
	}()

	start := time.Now()
	addr, ok := <-found
	if !ok {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("unit %q: %w", routingKey, ErrPrinterNotFound)
	}

	d.logger.Info("printer discovered",
		zap.String("routing_key", routingKey),
		zap.String("addr", addr),
		zap.Duration("scan_duration", time.Since(start)),
	)
	return addr, nil
}

func (d *Discoverer) probe(addr string) bool {
	conn, err := d.dial("tcp", addr, d.probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
