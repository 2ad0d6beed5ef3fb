// Command ydbcli is a minimal demonstration of the driver: it loads a
// cluster configuration, builds a Driver with the configured auth variant,
// waits for discovery to become ready, and runs a small DDL/DML sequence
// against it.
package main

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/grafana/pyroscope-go"

	"github.com/suleymanmyradov/ydb-go-driver/cmd/ydbcli/internal/config"
	"github.com/suleymanmyradov/ydb-go-driver/internal/auth"
	"github.com/suleymanmyradov/ydb-go-driver/internal/telemetry"
	"github.com/suleymanmyradov/ydb-go-driver/ydb"
)

var configFile = flag.String("f", "etc/ydbcli.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)
	logx.MustSetup(c.Log)
	defer logx.Close()

	if _, err := maxprocs.Set(maxprocs.Logger(logx.Infof)); err != nil {
		logx.Errorf("ydbcli: automaxprocs.Set failed (continuing with default GOMAXPROCS): %v", err)
	}

	stopProfiling := maybeStartProfiling()
	defer stopProfiling()

	creds, err := buildCredentials(c)
	if err != nil {
		logx.Errorf("ydbcli: building credentials: %v", err)
		os.Exit(1)
	}

	opts := []ydb.Option{
		ydb.WithTablePoolLimits(c.Pool.TableMin, c.Pool.TableMax),
	}
	if c.Metrics.Enabled {
		opts = append(opts, ydb.WithMetrics(prometheus.DefaultRegisterer, c.Metrics.Namespace))
	}
	if c.Tracing.Enabled {
		tp, err := telemetry.NewStdoutTracerProvider(os.Stderr)
		if err != nil {
			logx.Errorf("ydbcli: building tracer provider: %v", err)
			os.Exit(1)
		}
		opts = append(opts, ydb.WithTracerProvider(tp))
	}

	driver, err := ydb.New(c.EntryPoint, c.Database, creds, opts...)
	if err != nil {
		logx.Errorf("ydbcli: constructing driver: %v", err)
		os.Exit(1)
	}
	defer driver.Destroy(context.Background())

	if !driver.Ready(10 * time.Second) {
		logx.Errorf("ydbcli: discovery did not become ready within 10s")
		os.Exit(1)
	}
	fmt.Println("discovery ready")

	if err := runDemo(driver); err != nil {
		logx.Errorf("ydbcli: demo sequence failed: %v", err)
		os.Exit(1)
	}
}

func runDemo(driver *ydb.Driver) error {
	ctx := context.Background()
	table := driver.TableClient()
	scheme := driver.SchemeClient()

	if err := scheme.MakeDirectory(ctx, "demo", 5*time.Second); err != nil {
		return fmt.Errorf("makeDirectory: %w", err)
	}

	desc := ydb.NewTableDescription().
		WithColumn("id", "Uint64").
		WithColumn("name", "Utf8").
		WithPrimaryKey("id")

	if err := table.CreateTable(ctx, "demo/widgets", desc, 10*time.Second); err != nil {
		return fmt.Errorf("createTable: %w", err)
	}
	defer func() {
		if err := table.DropTable(ctx, "demo/widgets", 10*time.Second); err != nil {
			logx.Errorf("ydbcli: dropTable cleanup failed: %v", err)
		}
	}()

	schema, err := table.DescribeTable(ctx, "demo/widgets", 5*time.Second)
	if err != nil {
		return fmt.Errorf("describeTable: %w", err)
	}
	fmt.Printf("widgets schema: %d columns, primary key %v\n", len(schema.Columns), schema.PrimaryKey)

	result, err := table.ExecuteQuery(ctx, "SELECT 1 FROM widgets", nil, 5*time.Second)
	if err != nil {
		return fmt.Errorf("executeQuery: %w", err)
	}
	fmt.Printf("query returned %d rows\n", len(result.Rows))

	entries, err := scheme.ListDirectory(ctx, "demo", 5*time.Second)
	if err != nil {
		return fmt.Errorf("listDirectory: %w", err)
	}
	fmt.Printf("demo/ contains %d entries\n", len(entries))

	return nil
}

// buildCredentials constructs the auth variant named by c.Auth.Mode. The
// instance-metadata variant needs a platform-provided TokenService this CLI
// has no access to, so it is reported rather than faked.
func buildCredentials(c config.Config) (ydb.Credentials, error) {
	switch c.Auth.Mode {
	case "static":
		return auth.NewStaticCredentials(c.Auth.Static.Token, c.Database), nil
	case "iamjwt":
		key, err := loadPrivateKey(c.Auth.IAMJWT.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		cfg := auth.IAMJWTConfig{
			ServiceAccountID: c.Auth.IAMJWT.ServiceAccountID,
			AccessKeyID:      c.Auth.IAMJWT.AccessKeyID,
			PrivateKey:       key,
			IAMEndpoint:      c.Auth.IAMJWT.IAMEndpoint,
			Database:         c.Database,
		}
		if c.Auth.IAMJWT.RedisTokenCacheOn {
			cfg.Cache = auth.NewRedisTokenCache(redis.NewClient(&redis.Options{Addr: c.Auth.IAMJWT.RedisAddr}), "ydbcli:")
		}
		return auth.NewIAMJWTCredentials(cfg), nil
	case "metadata":
		return nil, fmt.Errorf("ydbcli: auth mode %q requires a platform-provided token service, which this CLI does not implement", c.Auth.Mode)
	default:
		return nil, fmt.Errorf("ydbcli: unknown auth mode %q", c.Auth.Mode)
	}
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key %s: %w", path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("decoding PEM block from %s", path)
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		keyAny, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err2 != nil {
			return nil, fmt.Errorf("parsing private key %s: %w", path, err)
		}
		rsaKey, ok := keyAny.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key %s is not RSA", path)
		}
		return rsaKey, nil
	}
	return key, nil
}

// maybeStartProfiling starts continuous profiling when PYROSCOPE_SERVER_ADDRESS
// is set, returning a no-op stop func otherwise.
func maybeStartProfiling() func() {
	addr := os.Getenv("PYROSCOPE_SERVER_ADDRESS")
	if addr == "" {
		return func() {}
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "ydbcli",
		ServerAddress:   addr,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
		},
	})
	if err != nil {
		logx.Errorf("ydbcli: starting pyroscope profiler (continuing without it): %v", err)
		return func() {}
	}
	return func() {
		if err := profiler.Stop(); err != nil {
			logx.Errorf("ydbcli: stopping pyroscope profiler: %v", err)
		}
	}
}
