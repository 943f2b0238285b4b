package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/stoa"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/ingestion"
)

// passage is one seed line: citation plus text.
type passage struct {
	source core.Source
	book   int
	entry  string
	text   string
}

var passages = []passage{
	{core.SourceMeditations, 2, "1", "Begin the morning by saying to thyself, I shall meet with the busybody, the ungrateful, arrogant, deceitful, envious, unsocial. All these things happen to them by reason of their ignorance of what is good and evil."},
	{core.SourceMeditations, 2, "11", "Since it is possible that thou mayest depart from life this very moment, regulate every act and thought accordingly."},
	{core.SourceMeditations, 2, "14", "Though thou shouldst be going to live three thousand years, remember that no man loses any other life than this which he now lives, nor lives any other than this which he now loses."},
	{core.SourceMeditations, 3, "5", "Stand erect, not held erect by others."},
	{core.SourceMeditations, 3, "10", "Throw away everything else, and hold to these few things only: each of us lives only this present and indivisible moment; all the rest has either been lived or is uncertain."},
	{core.SourceMeditations, 4, "3", "Men seek retreats for themselves, houses in the country, sea-shores, and mountains; but it is in thy power whenever thou shalt choose to retire into thyself."},
	{core.SourceMeditations, 4, "7", "Take away thy opinion, and then there is taken away the complaint, I have been harmed. Take away the complaint, and the harm is taken away."},
	{core.SourceMeditations, 4, "17", "Do not act as if thou wert going to live ten thousand years. Death hangs over thee. While thou livest, while it is in thy power, be good."},
	{core.SourceMeditations, 4, "49", "Be like the promontory against which the waves continually break, but it stands firm and tames the fury of the water around it."},
	{core.SourceMeditations, 5, "1", "In the morning when thou risest unwillingly, let this thought be present: I am rising to the work of a human being."},
	{core.SourceMeditations, 5, "16", "Such as are thy habitual thoughts, such also will be the character of thy mind; for the soul is dyed by the thoughts."},
	{core.SourceMeditations, 6, "6", "The best way of avenging thyself is not to become like the wrongdoer."},
	{core.SourceMeditations, 6, "39", "Accustom thyself to attend carefully to what is said by another, and as much as it is possible, be in the speaker's mind."},
	{core.SourceMeditations, 7, "8", "Let not future things disturb thee, for thou wilt come to them, if it shall be necessary, having with thee the same reason which now thou usest for present things."},
	{core.SourceMeditations, 7, "47", "Look round at the courses of the stars, as if thou wert going along with them; and constantly consider the changes of the elements into one another."},
	{core.SourceMeditations, 8, "47", "If thou art pained by any external thing, it is not this thing that disturbs thee, but thy own judgment about it. And it is in thy power to wipe out this judgment now."},
	{core.SourceMeditations, 9, "6", "Thy present opinion founded on understanding, and thy present conduct directed to social good, and thy present disposition of contentment with everything which happens, that is enough."},
	{core.SourceMeditations, 10, "16", "No longer talk at all about the kind of man that a good man ought to be, but be such."},
	{core.SourceMeditations, 11, "18", "Consider that the best way of avenging thyself is not to become like the wrongdoer. Anger and the vexation it brings hurt us more than the things themselves at which we are angry and vexed."},
	{core.SourceMeditations, 12, "17", "If it is not right, do not do it: if it is not true, do not say it."},
	{core.SourceEnchiridion, 1, "1", "Some things are in our control and others not. Things in our control are opinion, pursuit, desire, aversion, and, in a word, whatever are our own actions. Things not in our control are body, property, reputation, command."},
	{core.SourceEnchiridion, 1, "5", "Men are disturbed, not by things, but by the principles and notions which they form concerning things."},
	{core.SourceEnchiridion, 2, "1", "Remember that following desire promises the attainment of that of which you are desirous; and aversion promises the avoiding that to which you are averse."},
	{core.SourceEnchiridion, 5, "1", "When death appears dreadful, it is the opinion of death that is dreadful, not death itself. When therefore we are hindered, or disturbed, or grieved, let us never attribute it to others, but to ourselves; that is, to our own principles."},
	{core.SourceEnchiridion, 8, "1", "Don't demand that things happen as you wish, but wish that they happen as they do happen, and you will go on well."},
	{core.SourceEnchiridion, 15, "1", "Remember that you must behave in life as at a dinner party. Is anything brought around to you? Put out your hand and take your share with moderation."},
	{core.SourceEnchiridion, 17, "1", "Remember that you are an actor in a drama, of such a kind as the author pleases to make it. For this is your business, to act well the character assigned you; to choose it is another's."},
	{core.SourceEnchiridion, 33, "1", "Immediately prescribe some character and form of conduct to yourself, which you may keep both alone and in company."},
	{core.SourceEnchiridion, 43, "1", "Everything has two handles, the one by which it may be carried, the other by which it cannot."},
	{core.SourceEnchiridion, 48, "1", "The condition and characteristic of a philosopher is, that he expects all hurt and benefit from himself."},
	{core.SourceLetters, 1, "1", "Continue to act thus, my dear Lucilius: set yourself free for your own sake; gather and save your time, which till lately has been forced from you, or filched away, or has merely slipped from your hands."},
	{core.SourceLetters, 1, "2", "Nothing, Lucilius, is ours, except time. We were entrusted by nature with the ownership of this single thing, so fleeting and slippery that anyone who will can oust us from possession."},
	{core.SourceLetters, 2, "2", "Nowhere is the man who is everywhere. Those who spend their life in travel find that they have many acquaintances, but no friends."},
	{core.SourceLetters, 7, "8", "Associate with those who will make a better man of you. Welcome those whom you yourself can improve. The process is mutual; for men learn while they teach."},
	{core.SourceLetters, 13, "4", "There are more things, Lucilius, likely to frighten us than there are to crush us; we suffer more often in imagination than in reality."},
	{core.SourceLetters, 16, "1", "No man can live a happy life, or even a supportable life, without the study of wisdom."},
	{core.SourceLetters, 18, "6", "Set aside a certain number of days, during which you shall be content with the scantiest and cheapest fare, with coarse and rough dress, saying to yourself the while: Is this the condition that I feared?"},
	{core.SourceLetters, 49, "2", "Infinitely quick is the flight of time, as those see more clearly who are looking backwards."},
	{core.SourceLetters, 78, "14", "He that endures one trial bravely invites another. The bravest sight in the world is to see a great man struggling against adversity."},
	{core.SourceLetters, 101, "7", "Let us balance life's books each day. The man who puts the finishing touches on his life each day is never short of time."},
	{core.SourceFragments, 1, "1", "What is the first business of one who practices philosophy? To get rid of self-conceit. For it is impossible for anyone to begin to learn that which he thinks he already knows."},
	{core.SourceFragments, 1, "2", "Wealth consists not in having great possessions, but in having few wants."},
	{core.SourceFragments, 1, "3", "First say to yourself what you would be; and then do what you have to do."},
	{core.SourceFragments, 1, "4", "No man is free who is not master of himself."},
}

var seedFileName = flag.String("src", "", "file of seed passages (source|book.entry|text per line)")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// parseSeedLine parses one "source|book.entry|text" line.
func parseSeedLine(line string) (passage, error) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return passage{}, fmt.Errorf("malformed seed line %q: expected source|book.entry|text", line)
	}

	source := core.Source(strings.ToLower(strings.TrimSpace(parts[0])))
	if !core.ValidSource(source) {
		return passage{}, fmt.Errorf("unknown source %q", parts[0])
	}

	book, entry, ok := strings.Cut(strings.TrimSpace(parts[1]), ".")
	if !ok {
		return passage{}, fmt.Errorf("malformed citation %q: expected book.entry", parts[1])
	}
	bookNum, err := strconv.Atoi(book)
	if err != nil || bookNum <= 0 {
		return passage{}, fmt.Errorf("invalid book number %q", book)
	}

	return passage{
		source: source,
		book:   bookNum,
		entry:  entry,
		text:   strings.TrimSpace(parts[2]),
	}, nil
}

// passagesFromFile returns an iterator over passages in a file. Blank lines
// and lines starting with '#' are skipped.
func passagesFromFile(filename string) (iter.Seq2[passage, error], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(passage, error) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !yield(parseSeedLine(line)) {
				return
			}
		}
	}, nil
}

// passagesFromSlice returns an iterator over the embedded passages.
func passagesFromSlice(seed []passage) iter.Seq2[passage, error] {
	return func(yield func(passage, error) bool) {
		for _, p := range seed {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// ingestBatched reads from a source iterator and ingests passages in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq2[passage, error], batchSize int) error {
	batch := make([]*core.Entry, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := pipeline.Ingest(ctx, batch...); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for p, err := range source {
		if err != nil {
			return err
		}
		batch = append(batch, &core.Entry{
			Key: core.EntryKey{
				Source: p.source,
				Book:   p.book,
				Entry:  p.entry,
			},
			Text:        p.text,
			Reflectable: true,
		})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

func main() {
	db, err := stoa.NewDatabase("./stoa_db")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq2[passage, error]
	if seedFileName != nil && *seedFileName != "" {
		source, err = passagesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = passagesFromSlice(passages)
	}

	// Ingest in batches of 5
	if err := ingestBatched(ctx, pipeline, source, 5); err != nil {
		panic(err)
	}

	// Let embedding work drain before closing the database
	pipeline.Wait()
}
