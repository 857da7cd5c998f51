package main

import (
	"github.com/nextabc-lab/edgex"
	"github.com/nextabc-lab/edgex/opcua"
	"github.com/yoojia/go-value"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

func main() {
	edgex.Run(func(ctx edgex.Context) error {
		config := ctx.LoadConfig()
		return edgex.RunSouth(ctx, opcua.NewPlugin(), edgex.SouthOptions{
			Topic:  value.ToString(config["Topic"]),
			Vendor: value.ToString(config["Vendor"]),
		})
	})
}
