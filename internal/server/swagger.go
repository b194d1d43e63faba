package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title a11yscan API
// @version 0.1
// @description Interactive documentation for the a11yscan scanning API.
// @contact.name a11yscan Maintainers
// @contact.url https://github.com/avelines/a11yscan
// @BasePath /
