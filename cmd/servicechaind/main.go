// Command servicechaind is the minimal host process around the runtime
// package: it loads a genesis document, builds the compiled service table,
// runs genesis, and — given an optional batch of pre-signed transactions —
// applies one block, the way the teacher's cmd/nhb wires config, storage,
// and the core state machine together, stripped to this module's own
// dispatcher/runtime stack.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"servicechain/config"
	"servicechain/dispatch"
	"servicechain/observability/logging"
	"servicechain/observability/metrics"
	otelinit "servicechain/observability/otel"
	"servicechain/runtime"
	"servicechain/services/admission"
	"servicechain/services/asset"
	"servicechain/services/authorization"
	"servicechain/services/governance"
	"servicechain/services/kyc"
	"servicechain/services/metadata"
	"servicechain/services/multisig"
	"servicechain/services/riscv"
	"servicechain/storage"
	"servicechain/storage/trie"
	"servicechain/types"
)

func main() {
	genesisPath := flag.String("genesis", "./genesis.toml", "Path to the genesis TOML document")
	txsPath := flag.String("txs", "", "Path to a JSON file of pre-signed transactions to apply as block 1 (optional)")
	dataDir := flag.String("data-dir", "./data", "Directory for the block ledger (root hash + receipts per height)")
	logFile := flag.String("log-file", "", "Write logs to this rotating file instead of stdout")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address and block until interrupted (optional)")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP endpoint for traces/metrics export (optional)")
	env := flag.String("env", "", "Deployment environment label for logs and telemetry")
	flag.Parse()

	logger := buildLogger(*logFile, *env)
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *otelEndpoint != "" {
		shutdown, err := otelinit.Init(ctx, otelinit.Config{
			ServiceName: "servicechaind",
			Environment: *env,
			Endpoint:    *otelEndpoint,
			Metrics:     true,
			Traces:      true,
		})
		if err != nil {
			logger.Error("failed to init telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	doc, err := config.LoadGenesis(*genesisPath)
	if err != nil {
		logger.Error("failed to load genesis", slog.Any("error", err))
		os.Exit(1)
	}

	table := newServiceTable()
	rt := runtime.New(table)

	tr, err := trie.New(nil)
	if err != nil {
		logger.Error("failed to open trie", slog.Any("error", err))
		os.Exit(1)
	}

	genesisRoot, err := rt.Genesis(tr, doc)
	if err != nil {
		logger.Error("genesis failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("genesis applied", slog.String("chain_id", doc.ChainID), slog.String("state_root", fmt.Sprintf("%x", genesisRoot)))

	ledger, err := storage.NewLevelDB(*dataDir)
	if err != nil {
		logger.Error("failed to open ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer ledger.Close()

	if err := putJSON(ledger, "root:0", genesisRoot); err != nil {
		logger.Error("failed to persist genesis root", slog.Any("error", err))
		os.Exit(1)
	}

	if *txsPath != "" {
		txs, err := loadTransactions(*txsPath)
		if err != nil {
			logger.Error("failed to load transactions", slog.Any("error", err))
			os.Exit(1)
		}

		params := dispatch.BlockParams{
			Height:    1,
			Timestamp: uint64(time.Now().Unix()),
		}
		root, receipts, err := rt.Block(tr, params, txs, logger)
		if err != nil {
			logger.Error("block application failed", slog.Any("error", err))
			os.Exit(1)
		}

		if err := putJSON(ledger, fmt.Sprintf("root:%d", params.Height), root); err != nil {
			logger.Error("failed to persist block root", slog.Any("error", err))
			os.Exit(1)
		}
		if err := putJSON(ledger, fmt.Sprintf("receipts:%d", params.Height), receipts); err != nil {
			logger.Error("failed to persist receipts", slog.Any("error", err))
			os.Exit(1)
		}

		metrics.RuntimeMetrics().ObserveBlock(params.Height, receiptOutcomes(txs, receipts))
	}

	if *metricsAddr != "" {
		serveMetrics(ctx, *metricsAddr, logger)
	}
}

func buildLogger(logFile, env string) *slog.Logger {
	if logFile != "" {
		return logging.SetupFile("servicechaind", env, logFile)
	}
	return logging.Setup("servicechaind", env)
}

// newServiceTable wires every service package's Register function in the
// fixed order spec.md §2 lists, mirroring the teacher's explicit,
// build-time registration in core/node.go.
func newServiceTable() *dispatch.Table {
	table := dispatch.NewTable()
	asset.Register(table)
	governance.Register(table)
	kyc.Register(table)
	metadata.Register(table)
	admission.Register(table)
	multisig.Register(table)
	authorization.Register(table)
	riscv.Register(table)
	return table
}

func loadTransactions(path string) ([]*types.Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transactions file %q: %w", path, err)
	}
	var txs []*types.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions file %q: %w", path, err)
	}
	return txs, nil
}

func putJSON(db storage.Database, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return db.Put([]byte(key), raw)
}

func receiptOutcomes(txs []*types.Transaction, receipts []runtime.Receipt) []metrics.TxOutcome {
	out := make([]metrics.TxOutcome, 0, len(receipts))
	for i, r := range receipts {
		service, method := "", ""
		if i < len(txs) {
			service, method = txs[i].Service, txs[i].Method
		}
		out = append(out, metrics.TxOutcome{
			Service:    service,
			Method:     method,
			Failed:     r.Response.IsError(),
			CyclesUsed: r.CyclesUsed,
		})
	}
	return out
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server stopped", slog.Any("error", err))
	}
}
