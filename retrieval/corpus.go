package retrieval

// sampleCorpus is the bundled game documentation, one "# " headed block per
// game separated by "---" dividers. It mirrors the products in the analytics
// catalogue so both pipelines can answer about the same titles.
const sampleCorpus = `# Lucky 7 Slots

Lucky 7 Slots is a three-reel slot built around expanding wild sevens. When a
seven lands on the middle reel it expands to cover the whole reel and triggers
a respin. Three expanded sevens award the Lucky Jackpot of 777x the stake.

The return to player is 95.8 percent. Minimum bet is 0.10, maximum bet is 50.
The game was launched in Belgium in March 2023 and targets the high segment.

---
# Roulette Pro

Roulette Pro is a European single-zero roulette table with a house edge of
2.7 percent. Beyond the standard inside and outside bets it offers two side
bets: Lucky Number, which pays 100x when the winning number matches the
player's chosen lucky number, and Hot Streak, which pays on three consecutive
red or black outcomes.

Players can save favourite bet layouts and replay the last bet with one tap.
Roulette Pro launched in France in November 2022.

---
# Star Burst

Star Burst is a five-reel slot with win-both-ways paylines, meaning winning
combinations count from left to right and from right to left. Star symbols
act as wilds, expand over their reel, and lock it in place for up to three
respins.

The return to player is 96.1 percent. Star Burst launched in Belgium in July
2023 and sits in the medium segment.

---
# Blackjack Royale

Blackjack Royale follows classic blackjack rules with six decks, dealer stands
on soft 17, and blackjack pays 3 to 2. The Royal Match side bet pays 25 to 1
when the player's first two cards are a suited king and queen.

Blackjack Royale launched in France in May 2021.

---
# Mega Fortune Wheel

Mega Fortune Wheel is a progressive jackpot wheel game. Every spin contributes
to three pooled jackpots: Minor, Major, and Mega. Landing on the bonus wedge
opens the inner wheel where the Mega jackpot can be won. The Mega pool has
paid out over 3 million on average.

The game launched in the Netherlands in January 2023 and leads the high
segment by turnover.
`
