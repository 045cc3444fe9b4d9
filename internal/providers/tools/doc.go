// Package tools wraps external security utilities behind a typed registry.
//
// Each Tool knows its binary, how to install it and how to turn a Request
// into an argv. Commands are executed without a shell through the shell
// package's Run, under the install and run budgets configured at startup.
//
// Registered tools:
//   - nmap: network scanning with named presets (quick, stealth, udp, os, ...)
//   - proot-distro: install, remove and list Linux userlands
//   - metasploit: one-shot msfconsole commands and msfupdate
//   - osint: sherlock, theharvester, shodan and Have I Been Pwned lookups
//
// Example Usage:
//
//	reg := tools.NewRegistry(logger)
//	_ = reg.Register(tools.NewNmap(deps))
//	res, err := reg.Run(ctx, "nmap", tools.Request{Target: "10.0.0.1", Action: "quick"})
package tools
