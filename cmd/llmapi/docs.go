package main

// General API documentation for swaggo. Regenerate the docs package with
// `swag init -g cmd/llmapi/docs.go -o docs`.
//
// @title           llm-api
// @version         1.0
// @description     HTTPS API serving one in-memory language model.
//
// @contact.name   llm-api maintainers
// @contact.url    https://github.com/alexandrughinea/llm-api
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes https
