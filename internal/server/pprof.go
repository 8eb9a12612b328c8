package server

import (
	"log"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// StartPprofServer starts the pprof debug server on its own port, kept
// off the public API listener. Reach it over an internal network or an
// SSH tunnel only.
func StartPprofServer(port string) {
	pprofRouter := gin.New()
	pprof.Register(pprofRouter)

	go func() {
		log.Printf("pprof debug server listening on %s", port)
		if err := pprofRouter.Run(port); err != nil {
			log.Fatalf("pprof debug server failed: %v", err)
		}
	}()
}
