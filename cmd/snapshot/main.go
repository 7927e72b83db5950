package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"crypto-indices/src/config"
	"crypto-indices/src/data_source/coingecko"
	pb "crypto-indices/src/grpc_control"
	"crypto-indices/src/indices"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"
	"crypto-indices/src/network"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// -----------------------------------------------------------------------------

// snapshot computes one payload locally and prints it as JSON. With -control
// it instead asks a running service over gRPC.
func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	period := flag.String("period", string(models.PeriodDaily), "time period (daily, month, year, all)")
	control := flag.String("control", "", "gRPC control address (host:port); refresh remotely instead of computing")
	action := flag.String("action", "refresh", "remote action: refresh, status or invalidate")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *control != "" {
		if err := remote(ctx, *control, *action, *period); err != nil {
			fmt.Fprintf(os.Stderr, "control call failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.NewLogger(conf.MConfig, "snapshot")

	networkManager := network.NewAsyncNetworkManager(conf.MConfig, logger.NewLogger(conf.MConfig, "NetworkManager"))
	source := coingecko.NewCoinGeckoSource(conf.MConfig, networkManager)
	engine := indices.NewIndexEngine(conf.MConfig, source, logger.NewLogger(conf.MConfig, "IndexEngine"))

	payload, err := engine.Compute(ctx, models.ParseTimePeriod(*period))
	if err != nil {
		appLogger.Error("Compute failed: %v", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		appLogger.Error("Encode failed: %v", err)
		os.Exit(1)
	}

	m := engine.LastMetrics()
	appLogger.Info("Done in %.2fs (%d assets, %d history fetches, %d empty)",
		m.ComputeTimeSeconds, m.SnapshotAssets, m.HistoryFetches, m.HistoryFailures)
}

// -----------------------------------------------------------------------------

func remote(ctx context.Context, addr, action, period string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	client := pb.NewIndexControlClient(conn)

	switch action {
	case "status":
		resp, err := client.GetStatus(ctx)
		if err != nil {
			return err
		}
		return printProto(resp)
	case "invalidate":
		resp, err := client.InvalidateCache(ctx)
		if err != nil {
			return err
		}
		return printProto(resp)
	default:
		resp, err := client.Refresh(ctx, period)
		if err != nil {
			return err
		}
		return printProto(resp)
	}
}

// -----------------------------------------------------------------------------

func printProto(msg *structpb.Struct) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
