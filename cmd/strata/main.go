package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/stratahq/strata/cmd/strata/commands"
	"github.com/stratahq/strata/internal/doctor"
)

func main() {
	traceId := uuid.NewString()
	ctx := context.WithValue(context.Background(), "traceId", traceId)
	err := commands.Execute(ctx)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
}
