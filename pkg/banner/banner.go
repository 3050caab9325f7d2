package banner

import (
	"fmt"

	"chatsync/pkg/config"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗███████╗██╗   ██╗███╗   ██╗ ██████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔════╝╚██╗ ██╔╝████╗  ██║██╔════╝
██║     ███████║███████║   ██║   ███████╗ ╚████╔╝ ██╔██╗ ██║██║
██║     ██╔══██║██╔══██║   ██║   ╚════██║  ╚██╔╝  ██║╚██╗██║██║
╚██████╗██║  ██║██║  ██║   ██║   ███████║   ██║   ██║ ╚████║╚██████╗
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝   ╚═╝   ╚═╝  ╚═══╝ ╚═════╝
`

// Print prints the startup banner with the effective configuration.
func Print(eff config.EffectiveConfigResult, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", eff.Addr)
	fmt.Printf("DB Path:  %s\n", eff.DBPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config sources: %s\n", eff.Source)
	engine := "nethttp"
	if eff.Config != nil && eff.Config.Server.Engine != "" {
		engine = eff.Config.Server.Engine
	}
	fmt.Printf("Engine:   %s\n", engine)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET  /users")
	fmt.Println("GET  /conversations?userId=<id>")
	fmt.Println("GET  /conversations/{id}/messages?userId=<id>[&beforeId=<id>]")
	fmt.Println("POST /messages  {conversationId, senderId, content}")
	fmt.Println("POST /conversations/{id}/read  {userId}")

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl 'http://localhost%s/conversations?userId=1'\n", portSuffix(eff.Addr))
	fmt.Printf("curl -X POST 'http://localhost%s/messages' -d '{\"conversationId\":1,\"senderId\":1,\"content\":\"hello\"}'\n", portSuffix(eff.Addr))

	fmt.Println("\n== Production? ================================================")
	if eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if eff.Config != nil && eff.Config.Repair.Enabled {
		cron := eff.Config.Repair.Cron
		if cron == "" {
			cron = "* * * * *"
		}
		fmt.Printf("- Marker repair sweep: enabled (cron=%s)\n", cron)
	} else {
		fmt.Println("- Marker repair sweep: disabled")
	}
	if eff.Config != nil && eff.Config.Security.RateLimit.RPS > 0 {
		fmt.Printf("- Rate limit: %.1f rps (burst %d)\n", eff.Config.Security.RateLimit.RPS, eff.Config.Security.RateLimit.Burst)
	} else {
		fmt.Println("- Rate limit: disabled")
	}
	fmt.Println()
}

func portSuffix(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ""
}
