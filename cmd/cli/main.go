package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/cubny/metro"
	"github.com/cubny/metro/internal/tariff"
)

func main() {
	stationsfile := flag.String("stations", "data/Metro_data.csv", "station dataset csv file path")
	infile := flag.String("input", "", "input csv file path of from,to station pairs")
	outfile := flag.String("output", "journeys.csv", "output csv file path")
	concurrency := flag.Int("c", 5, "concurrent workers")
	fares := flag.Bool("fares", true, "resolve the fare of each journey")
	tiers := flag.String("tariff", tariff.Default.String(), "fare tiers as upto:fare pairs, * for the catch-all")
	flag.Parse()

	table, err := tariff.Parse(*tiers)
	if err != nil {
		log.Fatalf("parse tariff: %s\n", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint
		stop()
	}()

	dataset, err := loadDataset(ctx, *stationsfile)
	if err != nil {
		log.Fatalf("load stations: %s\n", err)
	}

	in, err := os.Open(*infile)
	if err != nil {
		log.Fatalf("open input file: %s\n", err)
	}

	out, err := os.Create(*outfile)
	if err != nil {
		log.Fatalf("open output file: %s\n", err)
	}

	defer func() {
		if err := in.Close(); err != nil {
			log.Fatalf("close input file: %s\n", err)
		}
		if err := out.Close(); err != nil {
			log.Fatalf("close output file: %s\n", err)
		}
	}()

	config := &metro.Config{
		Concurrency: *concurrency,
		Fares:       *fares,
		Tariff:      &table,
	}

	estimator, err := metro.NewEstimator(in, out, dataset, config)
	if err != nil {
		log.Fatalf("NewEstimator: %s\n", err)
	}

	exit := make(chan struct{})

	go func() {
		if err := estimator.Run(ctx); err != nil {
			log.Fatalf("estimator: %s\n", err)
		}
		exit <- struct{}{}
	}()

	<-exit
	fmt.Printf("%d stations loaded, output is written to %s\n", dataset.Len(), *outfile)
	fmt.Println("exit.")
}

func loadDataset(ctx context.Context, path string) (*metro.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return metro.LoadDataset(ctx, f)
}
