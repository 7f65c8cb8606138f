// Package datasettest provides a small curated dataset for tests in other
// packages.
package datasettest

import (
	"time"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// Keys of records in the fixture.
const (
	TopicGenesis      = "genesis-12"
	TopicPsalm        = "psalm-23"
	TopicBare         = "ruth-1"
	Congregation      = "grace-chapel"
	QuietCongregation = "quiet-fellowship"
)

// Festivals returns the default festival table.
func Festivals() []calendar.Event {
	return []calendar.Event{
		{ID: "passover", Name: "Passover (Pesach)", Anchor: calendar.Anchor{Month: calendar.Nisan, Day: 15}, Order: 1,
			Emphasis: "Celebrates redemption from Egypt and anticipates ultimate deliverance."},
		{ID: "unleavened-bread", Name: "Feast of Unleavened Bread", Anchor: calendar.Anchor{Month: calendar.Nisan, Day: 21}, Order: 2,
			Emphasis: "Calls to remove leaven, symbolizing holiness and readiness."},
		{ID: "shavuot", Name: "Shavuot (Pentecost)", Anchor: calendar.Anchor{Month: calendar.Sivan, Day: 6}, Order: 3,
			Emphasis: "Remembers Torah giving and the Spirit's empowering."},
		{ID: "rosh-hashanah", Name: "Rosh Hashanah", Anchor: calendar.Anchor{Month: calendar.Tishri, Day: 1}, Order: 4,
			Emphasis: "Invites reflection, repentance, and attentiveness to God's voice."},
		{ID: "yom-kippur", Name: "Yom Kippur", Anchor: calendar.Anchor{Month: calendar.Tishri, Day: 10}, Order: 5,
			Emphasis: "Centers on atonement and God's mercy."},
		{ID: "sukkot", Name: "Sukkot", Anchor: calendar.Anchor{Month: calendar.Tishri, Day: 15}, Order: 6,
			Emphasis: "Highlights God's provision in wilderness journeys."},
		{ID: "hanukkah", Name: "Hanukkah", Anchor: calendar.Anchor{Month: calendar.Kislev, Day: 25}, Order: 7,
			Emphasis: "Celebrates dedication and faithful witness."},
		{ID: "purim", Name: "Purim", Anchor: calendar.Anchor{Month: calendar.Adar, Day: 14}, Order: 8,
			Emphasis: "Recounts God's hidden deliverance in Esther's story."},
	}
}

// Raw returns the unprepared fixture so tests can break it.
func Raw() dataset.Dataset {
	baptism := calendar.Date(2024, time.May, 5)
	retreat := calendar.Date(2024, time.April, 13)

	return dataset.Dataset{
		Version:   "fixture-1",
		Festivals: Festivals(),
		Congregations: []dataset.Congregation{
			{
				ID:       Congregation,
				Name:     "Grace Chapel",
				Location: "Portland, OR",
				Values:   []string{"hospitality", "scripture", "justice"},
				Events: []dataset.CongregationEvent{
					{ID: "baptism-sunday", Description: "Baptism Sunday", Emphasis: "New life and public confession.", Date: &baptism},
					{ID: "anniversary", Description: "Church anniversary", Emphasis: "Gratitude for faithful years.", Annual: &dataset.MonthDay{Month: time.April, Day: 28}},
					{ID: "community-seder", Description: "Community Seder", Emphasis: "Remembering redemption at table.", Hebrew: &calendar.Anchor{Month: calendar.Nisan, Day: 14}},
					{ID: "youth-retreat", Description: "Youth retreat", Emphasis: "Formation in friendship.", Date: &retreat},
				},
			},
			{
				ID:       QuietCongregation,
				Name:     "Quiet Fellowship",
				Location: "Bend, OR",
				Values:   []string{"prayer"},
			},
		},
		Topics: []dataset.Topic{
			{
				Key:         TopicGenesis,
				Aliases:     []string{"Genesis 12:1-3", "call of abram"},
				Reference:   "Genesis 12:1-3",
				HebrewFocus: "לֶךְ־לְךָ",
				Translation: "go forth, for yourself",
				Themes:      []string{"covenant", "blessing", "journey"},
				Morphology: dataset.Morphology{
					Lexeme:       "הָלַךְ",
					PartOfSpeech: "verb, qal imperative",
					Root:         "ה־ל־ך",
					Notes:        "The imperative is paired with an ethical dative.",
					ExegeticalNotes: []string{
						"The ethical dative focuses the command on Abram himself.",
						"The call sequence moves from land to kindred to father's house.",
					},
					Application: "Name one step of trust the community can take this week.",
					Sources:     []string{"bhsa-genesis"},
				},
				Fragments: []dataset.Fragment{
					{Kind: dataset.FragmentExegetical, Text: "Blessing language repeats five times across three verses."},
					{Kind: dataset.FragmentLexical, Text: "בְּרָכָה frames the promise as gift rather than wage."},
					{Kind: dataset.FragmentRhetorical, Text: "Open with the cost of leaving home.", Registers: []dataset.LessonType{dataset.LessonTypeSermon}},
					{Kind: dataset.FragmentFormation, Text: "Practice a weekly rhythm of sending.", Registers: []dataset.LessonType{dataset.LessonTypeDiscipleship}},
					{Kind: dataset.FragmentApplication, Text: "Invite testimonies of unexpected journeys."},
					{Kind: dataset.FragmentExegetical, Text: "All families of the earth widens the horizon of blessing."},
					{Kind: dataset.FragmentLexical, Text: "The niphal of בָּרַךְ may be read reflexively.", Registers: []dataset.LessonType{dataset.LessonTypeBibleStudy}},
					{Kind: dataset.FragmentApplication, Text: "Ask students where they are being sent.", Audiences: []string{"youth"}},
				},
			},
			{
				Key:         TopicPsalm,
				Aliases:     []string{"Psalm 23"},
				Reference:   "Psalm 23",
				HebrewFocus: "רֹעִי",
				Translation: "my shepherd",
				Themes:      []string{"provision", "presence"},
				Morphology: dataset.Morphology{
					Lexeme:          "רָעָה",
					PartOfSpeech:    "verb, qal participle",
					Root:            "ר־ע־ה",
					ExegeticalNotes: []string{"The participle presents shepherding as ongoing care."},
					Application:     "Rest in God's ongoing care.",
				},
				Fragments: []dataset.Fragment{
					{Kind: dataset.FragmentExegetical, Text: "The psalm moves from pasture to banquet."},
				},
			},
			{
				Key:         TopicBare,
				Reference:   "Ruth 1:16-17",
				HebrewFocus: "חֶסֶד",
				Translation: "steadfast love",
				Morphology: dataset.Morphology{
					Lexeme:       "חֶסֶד",
					PartOfSpeech: "noun, masculine singular",
					Root:         "ח־ס־ד",
				},
			},
		},
		Sources: map[string][]dataset.Source{
			"bhsa-genesis": {
				{Name: "Genesis (BHSA)", Path: "tf/2021/book/Genesis.tf", URL: "https://github.com/ETCBC/bhsa", Repository: "ETCBC/bhsa"},
			},
			"הָלַךְ": {
				{Name: "Lexeme hlk", Path: "tf/2021/lex.tf", URL: "https://github.com/ETCBC/bhsa", Repository: "ETCBC/bhsa"},
				{Name: "Genesis (BHSA)", Path: "tf/2021/book/Genesis.tf", URL: "https://github.com/ETCBC/bhsa", Repository: "ETCBC/bhsa"},
			},
			TopicPsalm: {
				{Name: "Psalms (BHSA)", Path: "tf/2021/book/Psalms.tf", URL: "https://github.com/ETCBC/bhsa", Repository: "ETCBC/bhsa"},
			},
		},
	}
}

// Dataset returns the prepared fixture.
func Dataset() *dataset.Dataset {
	return dataset.MustPrepare(Raw())
}
