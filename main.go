// Package main library management API.
//
// @title           Library Management API
// @version         1.0
// @description     Libraries, books, members and loans; a loan's lifecycle drives book availability.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import "github.com/hgarciaospina/library-management/app/cli"

func main() {
	cli.Execute()
}
