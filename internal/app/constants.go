package app

// SeatCount is the number of seats at a Guiñote table.
const SeatCount = 4

// FirstDealer deals the opening hand of every match.
const FirstDealer = 0
