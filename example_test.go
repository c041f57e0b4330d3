package asm_test

import (
	"context"
	"fmt"

	"github.com/stateforward/go-asm"
)

func Example() {
	ready := func(asm.Context) asm.Result {
		return asm.Sync(true)
	}
	machine := asm.MustNew(context.Background(), asm.Config{
		State: "idle",
		Enter: func(ctx asm.Context) asm.Result {
			fmt.Printf("%s -> %s\n", ctx.From.Name(), ctx.To.Name())
			return asm.Sync(true)
		},
		Graph: []asm.StateConfig{
			{State: "idle", To: []asm.TransitionConfig{{State: "loading", Condition: ready}}},
			{State: "loading", To: []asm.TransitionConfig{
				{State: "failed"},
				{State: "ready", Condition: ready},
			}},
			{State: "ready"},
			{State: "failed"},
		},
	})

	ok, err := machine.Waterfall().Wait()
	fmt.Println(ok, err, machine.State().Name())
	// Output:
	// idle -> loading
	// loading -> ready
	// true <nil> ready
}

func ExampleMachine_GoTo() {
	machine := asm.MustNew(context.Background(), asm.Config{
		State: "closed",
		Graph: []asm.StateConfig{
			{State: "closed", To: []asm.TransitionConfig{{
				State: "open",
				After: func(asm.Context) asm.Result {
					return asm.Async(func() (bool, error) {
						return true, nil
					})
				},
			}}},
			{State: "open"},
		},
	})

	fmt.Println(machine.GoTo("open").Wait())
	result := machine.GoTo("open", true)
	fmt.Println(result.IsPending(), machine.IsPending())
	fmt.Println(result.Wait())
	fmt.Println(machine.State().Name(), machine.IsPending())
	// Output:
	// false <nil>
	// true true
	// true <nil>
	// open false
}
