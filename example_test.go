package signaller_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bpradana/signaller"
)

func ExampleSignal_Emit() {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	greetings := signaller.New[string](
		signaller.WithName("greetings"),
		signaller.WithLogger(quiet),
	)

	_, err := greetings.Connect(func(ctx context.Context, name string) error {
		fmt.Printf("Hello, %s!\n", name)
		return nil
	})
	if err != nil {
		panic(err)
	}

	if err := greetings.Emit(context.Background(), "Ada"); err != nil {
		panic(err)
	}
	// Output: Hello, Ada!
}

func ExampleScheduler() {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduler := signaller.NewScheduler()
	saves := signaller.New[string](
		signaller.WithName("saves"),
		signaller.WithScheduler(scheduler),
		signaller.WithLogger(quiet),
	)

	_, err := saves.Connect(func(ctx context.Context, path string) error {
		fmt.Printf("indexing %s\n", path)
		return nil
	}, signaller.Deferred())
	if err != nil {
		panic(err)
	}

	if err := saves.Emit(context.Background(), "notes.txt"); err != nil {
		panic(err)
	}
	fmt.Println("emit returned")
	scheduler.RunPending()
	// Output:
	// emit returned
	// indexing notes.txt
}
