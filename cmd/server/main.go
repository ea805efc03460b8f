package main

import (
	"context"
	"fmt"
	"os"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/gateway/memory"
	"github.com/healthybites/healthybites/gateway/redisgw"
	"github.com/healthybites/healthybites/model"
	"github.com/healthybites/healthybites/server"
	"github.com/healthybites/healthybites/utils/dotenv"
	"github.com/healthybites/healthybites/utils/flag"
	. "github.com/healthybites/healthybites/utils/log"
)

func init() {
	Log.Info("sync server initialized")
}

func main() {
	flag.Parse()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitLogger()

	backend := chooseBackend()
	router := server.New(backend).Router()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	Log.WithField("port", port).Info("sync server starts up")
	router.Run(":" + port)
}

// chooseBackend picks Redis when configured, otherwise the in-memory tree
// (which is wiped on restart, for local development only).
func chooseBackend() gateway.Gateway {
	if os.Getenv("REDIS_HOST") != "" {
		backend, err := redisgw.New(context.Background())
		if err != nil {
			Log.WithError(err).Fatal("connect redis backend")
		}
		Log.Info("using redis backend")
		return backend
	}

	Log.Info("using in-memory backend")
	backend := memory.New()
	if os.Getenv("HEALTHYBITES_SEED_DEMO") != "" {
		seedDemo(backend)
	}
	return backend
}

// seedDemo provisions a demo account and a couple of posts so a fresh
// in-memory backend is not an empty screen.
func seedDemo(backend gateway.Gateway) {
	ctx := context.Background()

	uid, err := backend.SignUp(ctx, "demo@healthybites.app", "demo1234")
	if err != nil {
		Log.WithError(err).Fatal("seed demo account")
	}

	profile, err := model.ToTree(model.UserProfile{
		FirstName:      "Demo",
		LastName:       "User",
		ProfilePicture: "https://healthybites.app/avatars/demo.png",
		CurrentTheme:   model.ThemeLight,
	})
	if err != nil {
		Log.WithError(err).Fatal("encode demo profile")
	}
	if err := backend.Write(ctx, gateway.UserPath(uid), profile); err != nil {
		Log.WithError(err).Fatal("seed demo profile")
	}

	posts := []model.RecipePost{
		{
			PreviewImage: model.PreviewImage4,
			Title:        "Hummus",
			Description:  "Creamy chickpea dip",
			Recipe:       "Blend chickpeas, tahini, lemon juice and garlic.",
			Author:       "Demo User",
			AuthorUID:    uid,
			CreatedOn:    "Mon Jun 05 2023 10:00:00 GMT+0000 (UTC)",
		},
		{
			PreviewImage: model.PreviewImage5,
			Title:        "Falafel",
			Description:  "Crispy chickpea fritters",
			Recipe:       "Grind soaked chickpeas with herbs, shape and fry.",
			Author:       "Demo User",
			AuthorUID:    uid,
			CreatedOn:    "Mon Jun 05 2023 11:30:00 GMT+0000 (UTC)",
		},
	}
	for i, post := range posts {
		value, err := model.ToTree(post)
		if err != nil {
			Log.WithError(err).Fatal("encode demo post")
		}
		if err := backend.Write(ctx, gateway.PostPath(fmt.Sprintf("demo_%d", i+1)), value); err != nil {
			Log.WithError(err).Fatal("seed demo post")
		}
	}

	Log.Info("demo data seeded")
}
