package main

import (
	"go.uber.org/fx"

	"github.com/obradorsoft/hornada/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
