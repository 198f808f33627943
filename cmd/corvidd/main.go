// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Command corvidd runs a single domain participant, publishing a
// heartbeat-style keyed string sample on a configurable topic and
// logging every sample it receives back. It is a thin demonstration
// harness over package dds, grounded on the teacher's cmd/ layout
// convention of one small main per daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corvidds/corvid/config"
	"github.com/corvidds/corvid/corvidlog"
	"github.com/corvidds/corvid/dds"
	"github.com/corvidds/corvid/durability"
	"github.com/corvidds/corvid/metrics"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/typesupport"
	"github.com/corvidds/corvid/typesupport/keyedstring"
)

var log = corvidlog.New("corvidd")

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file (optional; defaults apply otherwise)")
		topicName  = flag.String("topic", "corvid/demo", "topic to publish and subscribe on")
		metricsAddr = flag.String("metrics-addr", ":9191", "address to serve /metrics on")
		logLevel   = flag.String("log-level", "info", "debug|info|warn|error")
		publish    = flag.Bool("publish", true, "run a demo DataWriter alongside the DataReader")
		showVersion = flag.Bool("version", false, "print build version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(versioninfo.Short())
		return
	}

	corvidlog.SetLevel(*logLevel)
	log.Infof("corvidd %s", versioninfo.Short())

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Errorf("loading config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	reg := prometheus.NewRegistry()
	metrics.New(reg)
	go serveMetrics(*metricsAddr, reg)

	if cfg.DurabilityStorePath != "" {
		store, err := durability.Open(cfg.DurabilityStorePath)
		if err != nil {
			log.Errorf("opening durability store: %v", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if err := typesupport.Register(keyedstring.Descriptor()); err != nil {
		log.Errorf("registering typesupport: %v", err)
		os.Exit(1)
	}

	participant, err := dds.TheParticipantFactory.CreateParticipant(cfg.DomainId, 0, cfg.Interface)
	if err != nil {
		log.Errorf("creating participant: %v", err)
		os.Exit(1)
	}
	participant.Enable()
	log.Infof("joined domain %d with guid prefix %s", cfg.DomainId, participant.GuidPrefix())

	topic, err := participant.CreateTopic(*topicName, keyedstring.TypeName, dds.QosDefault, qos.Profile{})
	if err != nil {
		log.Errorf("creating topic: %v", err)
		os.Exit(1)
	}

	sub, err := participant.CreateSubscriber(dds.QosDefault, qos.Profile{})
	if err != nil {
		log.Errorf("creating subscriber: %v", err)
		os.Exit(1)
	}
	ctx := context.Background()
	reader, err := sub.CreateDataReader(ctx, topic, dds.QosDefault, qos.Profile{})
	if err != nil {
		log.Errorf("creating reader: %v", err)
		os.Exit(1)
	}

	var writer *dds.DataWriter
	if *publish {
		pub, err := participant.CreatePublisher(dds.QosDefault, qos.Profile{})
		if err != nil {
			log.Errorf("creating publisher: %v", err)
			os.Exit(1)
		}
		writer, err = pub.CreateDataWriter(ctx, topic, dds.QosDefault, qos.Profile{})
		if err != nil {
			log.Errorf("creating writer: %v", err)
			os.Exit(1)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	seq := 0
	for {
		select {
		case <-stop:
			log.Infof("shutting down")
			return
		case <-ticker.C:
			if writer != nil {
				seq++
				sample := keyedstring.Sample{Key: "corvidd", Value: fmt.Sprintf("tick-%d", seq)}
				if _, err := writer.Write(ctx, sample, types.NilHandle); err != nil {
					log.Warnf("write failed: %v", err)
				}
			}
			samples, err := reader.Take(ctx, dds.ReadTakeParams{MaxSamples: 16})
			if err != nil {
				continue
			}
			for _, s := range samples {
				log.Infof("received %+v", s.Data)
			}
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Infof("serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server stopped: %v", err)
	}
}

