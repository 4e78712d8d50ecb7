/*

Package bqloadbench measures how long BigQuery takes to load files of
different formats from Cloud Storage.

A benchmarking session encodes synthetic tables (see the dataset and encoder
packages) as CSV, gzip compressed CSV, Parquet and Avro files, uploads them to
a bucket and submits load jobs against them. Load times are taken from the
start and end times BigQuery reports for each job, so they exclude client side
latency.

Getting started

	ctx := context.Background()

	cc, err := bqloadbench.NewClientContext(ctx, bqloadbench.Config{
		Project:  "my-project",
		Location: "europe-west2",
		Bucket:   "my-loadbench-bucket",
		Dataset:  "loadbench",
	}, bqloadbench.WithLogLevel("debug"))
	if err != nil {
		panic(err)
	}
	defer cc.Close()

	if err := cc.Setup(ctx); err != nil {
		panic(err)
	}
	defer cc.Teardown(ctx)

	// Files named like CSV_5000_small.csv, see FileName.
	ds, _ := bqloadbench.Profile("data")
	if _, err := bqloadbench.Replicate(ctx, cc, "data", "data"); err != nil {
		panic(err)
	}

	ms, err := bqloadbench.Collect(ctx, cc, ds, "data", bqloadbench.RowsEqual(5000),
		bqloadbench.WithRepeat(10), bqloadbench.WithDuplicate(1))
	if err != nil {
		panic(err)
	}

	bqloadbench.WriteReport(os.Stdout, bqloadbench.Summarize(bqloadbench.Aggregate(ms)))

Pre-configured scenarios live in contrib/scenarios and a complete program in
examples/filebench.

*/
package bqloadbench
