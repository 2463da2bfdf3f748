package main

import "github.com/Mantelijo/waveportal/internal/svc"

func main() {
	svc.RunWavePortalClient()
}
