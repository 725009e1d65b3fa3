package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           tickd API
// @version         1.0
// @description     Observability API of the tickd tick loop.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
