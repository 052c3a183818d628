// Package celearn embeds the celearn concept learner in Go programs.
//
// A Client learns EL class expressions over one knowledge base. Runs can
// be single best-first searches or partitioned searches whose partial
// definitions are reduced to a small covering set.
//
//	kb, _ := celearn.LoadKnowledgeBase("family.yaml")
//	client, _ := celearn.New(ctx, kb,
//	    celearn.WithTimeBudget(5*time.Second),
//	    celearn.WithStopOnFirstDefinition(),
//	)
//	defer client.Close()
//
//	res, _ := client.Learn(ctx, celearn.Problem{
//	    Positives: []string{"stefan", "markus"},
//	    Negatives: []string{"heinz", "anna"},
//	})
//	fmt.Println(res.Best[0].Concept)
//
// Results are kept in memory. WithRedis or WithValkey persists run
// summaries and partial definitions.
package celearn
