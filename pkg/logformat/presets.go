/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logformat

import (
	"regexp"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/logminer"
)

type (
	// Preset is the known layout and mining settings of a public log dataset.
	Preset struct {
		Name         string   `json:"name" yaml:"name"`
		Layout       string   `json:"layout" yaml:"layout"`
		Masking      []string `json:"masking" yaml:"masking"`
		SimThreshold float64  `json:"simThreshold" yaml:"simThreshold"`
		Depth        int      `json:"depth" yaml:"depth"`
	}
)

// Presets are matched in this order.
var Presets = []Preset{
	{Name: "HDFS", Layout: `<Date> <Time> <Pid> <Level> <Component>: <Content>`,
		Masking: []string{`blk_-?\d+`, `(\d+\.){3}\d+(:\d+)?`}, SimThreshold: 0.5, Depth: 4},
	{Name: "Hadoop", Layout: `<Date> <Time> <Level> \[<Process>\] <Component>: <Content>`,
		Masking: []string{`(\d+\.){3}\d+`}, SimThreshold: 0.5, Depth: 4},
	{Name: "Spark", Layout: `<Date> <Time> <Level> <Component>: <Content>`,
		Masking: []string{`(\d+\.){3}\d+`, `\b[KGTM]?B\b`, `([\w-]+\.){2,}[\w-]+`}, SimThreshold: 0.5, Depth: 4},
	{Name: "Zookeeper", Layout: `<Date> <Time> - <Level>  \[<Node>:<Component>@<Id>\] - <Content>`,
		Masking: []string{`(/|)(\d+\.){3}\d+(:\d+)?`}, SimThreshold: 0.5, Depth: 4},
	{Name: "BGL", Layout: `<Label> <Timestamp> <Date> <Node> <Time> <NodeRepeat> <Type> <Component> <Level> <Content>`,
		Masking: []string{`core\.\d+`}, SimThreshold: 0.5, Depth: 4},
	{Name: "HPC", Layout: `<LogId> <Node> <Component> <State> <Time> <Flag> <Content>`,
		Masking: []string{`=\d+`}, SimThreshold: 0.5, Depth: 4},
	{Name: "Thunderbird", Layout: `<Label> <Timestamp> <Date> <User> <Month> <Day> <Time> <Location> <Component>(\[<PID>\])?: <Content>`,
		Masking: []string{`(\d+\.){3}\d+`}, SimThreshold: 0.5, Depth: 4},
	{Name: "Windows", Layout: `<Date> <Time>, <Level>                  <Component>    <Content>`,
		Masking: []string{`0x.*?\s`}, SimThreshold: 0.7, Depth: 5},
	{Name: "Linux", Layout: `<Month> <Date> <Time> <Level> <Component>(\[<PID>\])?: <Content>`,
		Masking: []string{`(\d+\.){3}\d+`, `\d{2}:\d{2}:\d{2}`}, SimThreshold: 0.39, Depth: 6},
	{Name: "Android", Layout: `<Date> <Time>  <Pid>  <Tid> <Level> <Component>: <Content>`,
		Masking: []string{`(/[\w-]+)+`, `([\w-]+\.){2,}[\w-]+`, `\b(\-?\+?\d+)\b|\b0[Xx][a-fA-F\d]+\b|\b[a-fA-F\d]{4,}\b`}, SimThreshold: 0.2, Depth: 6},
	{Name: "HealthApp", Layout: `<Time>\|<Component>\|<Pid>\|<Content>`,
		SimThreshold: 0.2, Depth: 4},
	{Name: "Apache", Layout: `\[<Time>\] \[<Level>\] <Content>`,
		Masking: []string{`(\d+\.){3}\d+`}, SimThreshold: 0.5, Depth: 4},
	{Name: "Proxifier", Layout: `\[<Time>\] <Program> - <Content>`,
		Masking: []string{`<\d+\ssec`, `([\w-]+\.)+[\w-]+(:\d+)?`, `\d{2}:\d{2}(:\d{2})*`, `[KGTM]B`}, SimThreshold: 0.6, Depth: 3},
	{Name: "OpenSSH", Layout: `<Date> <Day> <Time> <Component> sshd\[<Pid>\]: <Content>`,
		Masking: []string{`(\d+\.){3}\d+`, `([\w-]+\.){2,}[\w-]+`}, SimThreshold: 0.6, Depth: 5},
	{Name: "OpenStack", Layout: `<Logrecord> <Date> <Time> <Pid> <Level> <Component> \[<ADDR>\] <Content>`,
		Masking: []string{`((\d+\.){3}\d+,?)+`, `/.+?\s`, `\d+`}, SimThreshold: 0.5, Depth: 5},
	{Name: "Mac", Layout: `<Month>  <Date> <Time> <User> <Component>\[<PID>\]( \(<Address>\))?: <Content>`,
		Masking: []string{`([\w-]+\.){2,}[\w-]+`}, SimThreshold: 0.7, Depth: 6},
}

// DefaultLayout is used when no preset matches.
const DefaultLayout = `<Date> <Time> <Pid> <Level> <Component>: <Content>`

// PresetFor finds the preset whose name appears in filename as a whole word, e.g. 'OpenSSH_2k.log'.
func PresetFor(filename string) (Preset, bool) {
	for _, p := range Presets {
		re := regexp.MustCompile(regexp.QuoteMeta(p.Name) + `([_\W]|$)`)
		if re.MatchString(filename) {
			return p, true
		}
	}
	return Preset{}, false
}

func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// MinerConfig returns the miner settings of the preset. Masked values become wildcards.
func (p Preset) MinerConfig() logminer.Config {
	c := logminer.DefaultConfig()
	if p.Depth > 0 {
		c.Depth = p.Depth
	}
	if p.SimThreshold > 0 {
		c.SimThreshold = p.SimThreshold
	}
	for _, m := range p.Masking {
		c.Masking = append(c.Masking, logminer.MaskRule{Pattern: m, MaskWith: "*"})
	}
	return c
}
