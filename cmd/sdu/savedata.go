package main

import (
	"fmt"
	"os"

	"github.com/DCNick3/shin-sub001/pkg/format/save"
)

func runSavedata(args []string) error {
	if len(args) < 2 || args[0] != "inspect" {
		return fmt.Errorf("usage: savedata inspect <save.bin>")
	}
	inPath := args[1]

	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	savedata, err := save.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inPath, err)
	}

	hours := savedata.PlaySeconds / 3600
	minutes := savedata.PlaySeconds / 60 % 60
	fmt.Printf("play time: %dh%02dm\n", hours, minutes)
	fmt.Printf("save menu position: %d\n", savedata.SaveMenuPosition)

	settings := savedata.Settings
	fmt.Printf("volumes: bgm %d sfx %d voice %d system %d\n",
		settings.BGMVolume, settings.SFXVolume, settings.VoiceVolume, settings.SystemVolume)
	fmt.Printf("message speed: %d, skip speed: %d\n",
		settings.MessageSpeed, settings.SkipSpeed)

	nonzero := 0
	for _, v := range savedata.PersistData.Values() {
		if v != 0 {
			nonzero++
		}
	}
	fmt.Printf("persistent slots in use: %d\n", nonzero)

	if slot := savedata.AutoSaveSlot; slot != nil {
		fmt.Printf("autosave: %s scenario %d position 0x%x\n",
			slot.DateTime.Format("2006-01-02 15:04"),
			slot.Entry.ScenarioID, slot.Entry.SavePosition)
	}
	used := 0
	for i, slot := range savedata.ManualSaveSlots {
		if slot == nil {
			continue
		}
		used++
		fmt.Printf("slot %3d: %s scenario %d position 0x%x\n",
			i, slot.DateTime.Format("2006-01-02 15:04"),
			slot.Entry.ScenarioID, slot.Entry.SavePosition)
	}
	if used == 0 {
		fmt.Println("no manual saves")
	}
	return nil
}
