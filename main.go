package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/fagan2888/represent-boundaries/internal/boundaries"
	"github.com/fagan2888/represent-boundaries/internal/db"
	"github.com/fagan2888/represent-boundaries/internal/middleware"
	"github.com/fagan2888/represent-boundaries/internal/tiles"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	boundaries.Init()
	settings := boundaries.LoadFromEnv()

	api := &boundaries.API{
		Store:    boundaries.NewPGStore(db.DB),
		Settings: settings,
	}
	tileHandler := &tiles.Handler{
		Renderer: &tiles.Renderer{
			Store:     tiles.NewPGStore(db.DB),
			Tolerance: settings.SimpleShapeTolerance,
		},
		CacheMaxAge: settings.TileCacheMaxAge,
	}

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/boundary-sets", api.SetRoutes())
	r.Mount("/boundaries", api.BoundaryRoutes())
	r.Route("/tiles", func(r chi.Router) {
		r.Use(middleware.RateLimit(settings.TileRateLimit))
		r.Mount("/", tileHandler.Routes())
	})

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
