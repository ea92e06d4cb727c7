package recipe

import (
	"github.com/lixenwraith/murmur/graph"
	"github.com/lixenwraith/murmur/noise"
)

func init() {
	register(&Recipe{ID: "rain", Name: "Rain", Category: "weather", BaseVolume: 0.5, Build: buildRain})
	register(&Recipe{ID: "thunder", Name: "Thunder", Category: "weather", BaseVolume: 0.45, Build: buildThunder})
	register(&Recipe{ID: "fire", Name: "Fire", Category: "cosy", BaseVolume: 0.5, Build: buildFire})
	register(&Recipe{ID: "forest", Name: "Forest", Category: "nature", BaseVolume: 0.4, Build: buildForest})
	register(&Recipe{ID: "waves", Name: "Waves", Category: "water", BaseVolume: 0.5, Build: buildWaves})
	register(&Recipe{ID: "cafe", Name: "Cafe", Category: "social", BaseVolume: 0.4, Build: buildCafe})
	register(&Recipe{ID: "wind", Name: "Wind", Category: "weather", BaseVolume: 0.45, Build: buildWind})
	register(&Recipe{ID: "night", Name: "Night", Category: "nature", BaseVolume: 0.35, Build: buildNight})
}

// buildRain layers a low brown bed under gently pulsing high droplets
func buildRain(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	b.layer(0.4, b.noise(noise.Brown), b.lowpass(1000, 0.5))

	droplets := b.layer(0.15, b.noise(noise.White), b.highpass(4000, DefaultQ), b.lowpass(8000, DefaultQ))
	b.lfo(graph.Sine, 0.3, 0.05, droplets.Level())

	return b.done()
}

// buildThunder rolls a deep rumble with two slow incommensurate LFOs
func buildThunder(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	rumble := b.layer(0.6, b.noise(noise.Brown), b.lowpass(150, 1))
	b.lfo(graph.Sine, 0.08, 0.3, rumble.Level())
	b.lfo(graph.Sine, 0.03, 0.2, rumble.Level())

	return b.done()
}

// buildFire gates band-limited crackle with saw and square pops over a low body
func buildFire(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	crackle := b.layer(0.2, b.noise(noise.White), b.bandpass(2000, 0.8))
	b.lfo(graph.Sawtooth, 3, 0.15, crackle.Level())
	b.lfo(graph.Square, 7, 0.08, crackle.Level())

	b.layer(0.25, b.noise(noise.Brown), b.lowpass(300, DefaultQ))

	return b.done()
}

// buildForest mixes rustling leaves with warbling, intermittent bird tones
func buildForest(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	rustle := b.layer(0.15, b.noise(noise.Pink), b.bandpass(3000, 0.3))
	b.lfo(graph.Sine, 0.15, 0.08, rustle.Level())

	bird1 := g.Oscillator(graph.Sine, 2800)
	bird2 := g.Oscillator(graph.Sine, 3200)
	birds := b.layer(0.03, bird1)
	g.Connect(bird2, birds)

	b.lfo(graph.Sine, 5, 200, bird1.Frequency(), bird2.Frequency())
	b.lfo(graph.Square, 0.5, 0.03, birds.Level())

	return b.done()
}

// buildWaves swells a low pink body and shares the swell with a foam layer
func buildWaves(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	body := b.layer(0.3, b.noise(noise.Pink), b.lowpass(600, 0.7))
	swell := b.lfo(graph.Sine, 0.08, 0.25, body.Level())
	b.lfo(graph.Sine, 0.15, 0.1, body.Level())

	foam := b.layer(0.05, b.noise(noise.White), b.highpass(3000, DefaultQ))
	g.Modulate(swell, foam.Level(), 0.05, 0)

	return b.done()
}

// buildCafe shapes pink noise through voice formants over a brown room tone
func buildCafe(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	voices := b.noise(noise.Pink)
	v1 := b.layer(0.15, voices, b.bandpass(500, 2))
	b.layer(0.1, voices, b.bandpass(1500, 2))
	b.layer(0.05, voices, b.bandpass(2500, 2))
	b.lfo(graph.Sine, 3, 0.08, v1.Level())

	v4 := b.layer(0.1, b.noise(noise.Pink), b.bandpass(800, 1.5))
	b.lfo(graph.Sine, 2.3, 0.06, v4.Level())

	b.layer(0.08, b.noise(noise.Brown), b.lowpass(400, DefaultQ))

	return b.done()
}

// buildWind howls a swept pink band with a whistling white band above it
func buildWind(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	band := b.bandpass(400, 0.5)
	body := b.layer(0.35, b.noise(noise.Pink), band)
	b.lfo(graph.Sine, 0.05, 0.2, body.Level())
	b.lfo(graph.Sine, 0.07, 200, band.Frequency())

	whistle := b.bandpass(2000, 3)
	b.layer(0.04, b.noise(noise.White), whistle)
	b.lfo(graph.Sine, 0.1, 500, whistle.Frequency())

	return b.done()
}

// buildNight chirps three gated crickets over a faint brown air layer
func buildNight(g *graph.Graph, src Sources) error {
	b := newBuilder(g, src)

	crickets := []struct{ hz, rate float64 }{
		{4200, 12},
		{4800, 10},
		{3800, 14},
	}
	for _, c := range crickets {
		chirp := b.layer(0, g.Oscillator(graph.Sine, c.hz))
		b.gate(graph.Square, c.rate, 0.02, chirp.Level())
	}

	air := b.layer(0.1, b.noise(noise.Brown), b.lowpass(200, DefaultQ))
	b.lfo(graph.Sine, 0.03, 0.05, air.Level())

	return b.done()
}
