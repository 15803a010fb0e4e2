// Package graph provides a unified facade over the command graph of a
// session: the structure in topologystore and the execution state in
// commandstore.
//
// # Architecture: The Facade Pattern
//
//	┌─────────────────────────────────────┐
//	│           Graph Facade              │
//	│  (queues record, workers update,    │
//	│   reports and tests query)          │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌──────────────┐
//	  │  Topology  │  │ Command State│
//	  │   Store    │  │    Store     │
//	  │ (Structure)│  │   (Status)   │
//	  └────────────┘  └──────────────┘
//
// **Topology Store** holds every submitted command and every edge between
// commands, whether it came from a hazard, an explicit dependency or an
// in-order queue. Edges always point from earlier to later submissions.
//
// **Command State Store** holds status, captured errors and timings.
//
// # Usage Patterns
//
// **Queues** record a command and its edges at submission:
//
//	g.AddCommand(ctx, cmd)
//	g.AddEdge(ctx, topologystore.Edge{From: prev, To: cmd.ID, ...})
//
// **Workers** update state as commands execute:
//
//	g.MarkRunning(ctx, id)
//	if err != nil {
//	    g.MarkFailed(ctx, id, err)
//	} else {
//	    g.MarkCompleted(ctx, id)
//	}
//
// # Thread-Safety
//
// All Graph methods are thread-safe by delegation to the underlying stores.
package graph
