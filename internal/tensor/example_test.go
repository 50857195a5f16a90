package tensor_test

import (
	"context"
	"fmt"

	"github.com/agbru/bigtensor/internal/tensor"
)

func ExampleEngine_Add() {
	e := tensor.NewEngine(tensor.DefaultOptions())
	a, _ := tensor.Import([]string{"1", "2", "3", "4"}, tensor.Shape{2, 2})
	b, _ := tensor.Import([]string{"100000000000000000000"}, tensor.Shape{})
	sum, err := e.Add(context.Background(), a, b)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(sum.Shape(), sum)
	// Output: [2 2] [[100000000000000000001 100000000000000000002] [100000000000000000003 100000000000000000004]]
}

func ExampleBroadcast() {
	out, _ := tensor.Broadcast("add", tensor.Shape{4, 1}, tensor.Shape{3})
	fmt.Println(out)
	_, err := tensor.Broadcast("add", tensor.Shape{2, 2}, tensor.Shape{3, 3})
	fmt.Println(err)
	// Output:
	// [4 3]
	// add: incompatible shapes [2 2] and [3 3] at axis 0
}

func ExampleExport() {
	a, _ := tensor.Import([]int32{-7, 42}, tensor.Shape{2})
	s, _ := tensor.Export[string](a)
	fmt.Println(s)
	// Output: [-7 42]
}
