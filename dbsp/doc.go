// Package dbsp is a client for the DBSP pipeline server.
//
// # Overview
//
// A caller opens a Connection, creates a Project from SQL source, compiles
// it, attaches input and output endpoints to a ProjectConfig, and runs the
// config to obtain a Pipeline:
//
//	conn, err := dbsp.Open(ctx, "127.0.0.1:8080")
//	if err != nil {
//		return err
//	}
//	project, err := conn.NewProject(ctx, "bids", sql)
//	if err != nil {
//		return err
//	}
//	if err := project.Compile(ctx, 5*time.Minute); err != nil {
//		return err
//	}
//	cfg, _ := project.NewConfig("bids-config", 4)
//	_ = cfg.AddInput("bids", dbsp.EndpointConfig{
//		Stream:    "BID",
//		Transport: dbsp.KafkaInput([]string{"localhost:9092"}, "bids"),
//		Format:    dbsp.CSVFormat(),
//	})
//	pipeline, err := cfg.Run(ctx)
//	if err != nil {
//		return err
//	}
//	defer pipeline.Teardown(context.Background())
//
// # Compilation
//
// Compile submits the project and then polls its status every
// DefaultPollInterval (see WithPollInterval) until the server reports
// Success, SqlError or RustError, or until the timeout elapses. Elapsed time is
// measured on the clock supplied with WithClock, which lets tests drive the
// loop with a fake clock.
//
// # Pipelines
//
// Pipelines returned by ProjectConfig.Run have already been started.
// Pause, Shutdown and Delete move the handle through its lifecycle; a failed
// call leaves the state as StateUnknown.
//
// # Errors
//
// Every remote failure is a *ServerError carrying the HTTP status and the
// server's message. Compile adds *CompilationError, *TimeoutError and
// *ProtocolError, and Open reports an unreachable server as *ConnectionError.
// Nothing in this package retries.
package dbsp
