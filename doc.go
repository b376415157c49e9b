// Package genesis embeds the retrieval-augmented assistant in a Go program.
//
// A Client loads the same YAML policy as the HTTP server, indexes the
// knowledge base on start and answers questions through the full
// retrieve, draft, critique and refine pipeline.
//
//	client, _ := genesis.New(ctx, genesis.WithConfigFile("config/local.yaml"))
//	defer client.Close()
//
//	ans, _ := client.Ask(ctx, genesis.Request{Message: "¿Cómo uso Docker?"})
//	fmt.Println(ans.Response, ans.Critique.Score)
//
// Without a generation provider every answer comes from the deterministic
// templates. Plug one in with WithGenerator, or set generation.provider to
// openai in the config file.
//
// History lives in memory unless WithRedis or WithValkey is given.
package genesis
