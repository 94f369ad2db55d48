// Package garage manages vehicle and administrator records and answers
// filtered, sorted, paginated vehicle searches.
//
// A typical program loads a Config, opens the database through the
// database package and wires the services with New:
//
//	cfg, _ := garage.LoadConfig("garage.yaml")
//	db, _ := database.InitDB(ctx, &cfg.Database)
//	g := garage.New(db, garage.WithQueryConfig(cfg.Query))
//	page, err := g.Vehicles.Search(ctx, query.RawFilter{Brand: query.Ptr("honda")})
package garage
